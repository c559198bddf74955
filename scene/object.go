package scene

import (
	"math"

	"github.com/guanlun/psan1-rendering-engine/physics"
	"github.com/guanlun/psan1-rendering-engine/types"
)

type GeometryType uint8

const (
	BoxGeometry GeometryType = iota
	SphereGeometry
)

// Geometry is the object-space shape of an imported object. It stands in for
// the imported mesh: the tracer intersects against it and the physics world
// derives collision shapes from it.
type Geometry struct {
	Type GeometryType

	// Box half extents.
	HalfExtents types.Vec3

	// Sphere radius.
	Radius float32
}

// Get the object-space bounding box.
func (g Geometry) LocalBBox() [2]types.Vec3 {
	var ext types.Vec3
	switch g.Type {
	case SphereGeometry:
		ext = types.Vec3{g.Radius, g.Radius, g.Radius}
	default:
		ext = g.HalfExtents
	}
	return [2]types.Vec3{ext.Mul(-1), ext}
}

// ObjectDesc contains the properties shared by static and dynamic objects.
type ObjectDesc struct {
	Name     string
	Geometry Geometry
	Material int

	Position types.Vec3
	Rotation types.Quat
	Scale    types.Vec3

	// Emissive objects become area lights.
	Emissive bool
	Radiance types.Vec3
}

// Object is a renderable scene entity. It is implemented by *StaticObject
// and *DynamicObject only; callers switch on the concrete type instead of
// probing for an optional collider.
type Object interface {
	Name() string
	Transform() *Transform
	Geometry() Geometry
	Material() int
	Scale() types.Vec3
	Emissive() bool
	Radiance() types.Vec3

	// Get the world-space bounding box for the current transform.
	WorldBBox() [2]types.Vec3

	sealed()
}

type header struct {
	name      string
	transform *Transform
	geometry  Geometry
	material  int
	scale     types.Vec3
	emissive  bool
	radiance  types.Vec3
}

func newHeader(desc ObjectDesc) header {
	scale := desc.Scale
	if scale == (types.Vec3{}) {
		scale = types.Vec3{1, 1, 1}
	}
	rot := desc.Rotation
	if rot == (types.Quat{}) {
		rot = types.QuatIdent()
	}

	return header{
		name:      desc.Name,
		transform: NewTransform(types.TRS(desc.Position, rot, scale)),
		geometry:  desc.Geometry,
		material:  desc.Material,
		scale:     scale,
		emissive:  desc.Emissive,
		radiance:  desc.Radiance,
	}
}

func (h *header) Name() string { return h.name }
func (h *header) Transform() *Transform { return h.transform }
func (h *header) Geometry() Geometry { return h.geometry }
func (h *header) Material() int { return h.material }
func (h *header) Scale() types.Vec3 { return h.scale }
func (h *header) Emissive() bool { return h.emissive }
func (h *header) Radiance() types.Vec3 { return h.radiance }
func (h *header) sealed() {}
func (h *header) WorldBBox() [2]types.Vec3 { return transformBBox(h.transform.Matrix(), h.geometry.LocalBBox()) }

// StaticObject is never moved by the frame loop.
type StaticObject struct {
	header
}

// Create a static object.
func NewStaticObject(desc ObjectDesc) *StaticObject {
	return &StaticObject{header: newHeader(desc)}
}

// DynamicObject follows the pose of a simulated rigid body.
type DynamicObject struct {
	header
	collider *Collider
}

// Create a dynamic object whose transform is driven by rb.
func NewDynamicObject(desc ObjectDesc, rb *physics.RigidBody) *DynamicObject {
	obj := &DynamicObject{header: newHeader(desc)}
	obj.collider = &Collider{
		body:      rb,
		transform: obj.transform,
		scale:     obj.scale,
	}
	return obj
}

// Get the object collider.
func (o *DynamicObject) Collider() *Collider {
	return o.collider
}

// Transform the 8 corners of a box and return their bounds.
func transformBBox(m types.Mat4, bbox [2]types.Vec3) [2]types.Vec3 {
	out := [2]types.Vec3{
		{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
	for corner := 0; corner < 8; corner++ {
		p := types.Vec3{
			bbox[corner&1][0],
			bbox[(corner>>1)&1][1],
			bbox[(corner>>2)&1][2],
		}
		p = types.TransformPoint(m, p)
		out[0] = types.MinVec3(out[0], p)
		out[1] = types.MaxVec3(out[1], p)
	}
	return out
}
