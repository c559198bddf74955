package physics

import (
	"github.com/guanlun/psan1-rendering-engine/types"
	"github.com/jakecoffman/cp"
)

type ShapeType uint8

const (
	BoxShape ShapeType = iota
	SphereShape
)

// BodyConfig describes a rigid body and its collision shape.
type BodyConfig struct {
	// Body mass; a zero mass creates a static body.
	Mass float64

	Shape ShapeType

	// Box half extents (only X and Y participate in collisions).
	HalfExtents types.Vec3

	// Sphere radius.
	Radius float32

	// Initial pose. Rotation is an angle in radians about the Z axis.
	Position types.Vec3
	Rotation float32

	Friction    float64
	Restitution float64
}

// RigidBody wraps a simulated body. The owning World holds its simulation
// state; the body is only a handle into it.
type RigidBody struct {
	cfg   BodyConfig
	body  *cp.Body
	shape *cp.Shape

	// The world this body is registered with (nil if not registered).
	world *World
}

// Create a new rigid body.
func NewRigidBody(cfg BodyConfig) (*RigidBody, error) {
	if cfg.Mass < 0 {
		return nil, ErrNegativeMass
	}

	var body *cp.Body
	var shape *cp.Shape
	switch cfg.Shape {
	case BoxShape:
		w, h := 2*float64(cfg.HalfExtents[0]), 2*float64(cfg.HalfExtents[1])
		if w <= 0 || h <= 0 {
			return nil, ErrInvalidShape
		}
		if cfg.Mass == 0 {
			body = cp.NewStaticBody()
		} else {
			body = cp.NewBody(cfg.Mass, cp.MomentForBox(cfg.Mass, w, h))
		}
		shape = cp.NewBox(body, w, h, 0)
	case SphereShape:
		r := float64(cfg.Radius)
		if r <= 0 {
			return nil, ErrInvalidShape
		}
		if cfg.Mass == 0 {
			body = cp.NewStaticBody()
		} else {
			body = cp.NewBody(cfg.Mass, cp.MomentForCircle(cfg.Mass, 0, r, cp.Vector{}))
		}
		shape = cp.NewCircle(body, r, cp.Vector{})
	default:
		return nil, ErrInvalidShape
	}

	shape.SetFriction(cfg.Friction)
	shape.SetElasticity(cfg.Restitution)

	rb := &RigidBody{
		cfg:   cfg,
		body:  body,
		shape: shape,
	}
	body.UserData = rb
	rb.setPose(cfg.Position, cfg.Rotation)
	return rb, nil
}

// Returns true if this body never moves.
func (rb *RigidBody) IsStatic() bool {
	return rb.cfg.Mass == 0
}

// Get the world this body is registered with.
func (rb *RigidBody) World() *World {
	return rb.world
}

// Get the body configuration.
func (rb *RigidBody) Config() BodyConfig {
	return rb.cfg
}

// Get the current position and orientation of the body.
func (rb *RigidBody) Pose() (types.Vec3, types.Quat) {
	p := rb.body.Position()
	pos := types.Vec3{float32(p.X), float32(p.Y), rb.cfg.Position[2]}
	rot := types.QuatFromAxisAngle(types.Vec3{0, 0, 1}, float32(rb.body.Angle()))
	return pos, rot
}

// Get the current pose as a rigid transformation matrix.
func (rb *RigidBody) Transform() types.Mat4 {
	pos, rot := rb.Pose()
	return types.TRS(pos, rot, types.Vec3{1, 1, 1})
}

// Restore the initial pose and clear linear and angular velocity.
func (rb *RigidBody) ResetPose() {
	if rb.IsStatic() {
		return
	}
	rb.setPose(rb.cfg.Position, rb.cfg.Rotation)
	rb.body.SetVelocity(0, 0)
	rb.body.SetAngularVelocity(0)
}

// Get the half depth of the body along Z.
func (rb *RigidBody) halfDepth() float32 {
	if rb.cfg.Shape == SphereShape {
		return rb.cfg.Radius
	}
	return rb.cfg.HalfExtents[2]
}

func (rb *RigidBody) overlapsDepth(other *RigidBody) bool {
	dz := rb.cfg.Position[2] - other.cfg.Position[2]
	if dz < 0 {
		dz = -dz
	}
	return dz < rb.halfDepth()+other.halfDepth()
}

func (rb *RigidBody) setPose(pos types.Vec3, angle float32) {
	rb.body.SetPosition(cp.Vector{X: float64(pos[0]), Y: float64(pos[1])})
	rb.body.SetAngle(float64(angle))
}
