package physics

import (
	"github.com/guanlun/psan1-rendering-engine/log"
	"github.com/guanlun/psan1-rendering-engine/types"
	"github.com/jakecoffman/cp"
)

type Broadphase uint8

const (
	// A dynamic AABB tree (the engine default).
	BroadphaseTree Broadphase = iota

	// A uniform spatial hash; needs SpatialHashDim and SpatialHashCount.
	BroadphaseSpatialHash
)

// Config controls world construction.
type Config struct {
	// Gravity acceleration. Bodies simulate in the X/Y plane so the Z
	// component is ignored.
	Gravity types.Vec3

	// Solver iterations per substep.
	Iterations uint

	// The fixed substep length in seconds.
	FixedTimeStep float64

	Broadphase       Broadphase
	SpatialHashDim   float64
	SpatialHashCount int
}

// Default world configuration.
func DefaultConfig() Config {
	return Config{
		Gravity:       types.Vec3{0, -9.81, 0},
		Iterations:    10,
		FixedTimeStep: 1.0 / 60.0,
		Broadphase:    BroadphaseTree,
	}
}

// World owns the simulation state of all registered rigid bodies.
type World struct {
	logger log.Logger

	cfg   Config
	space *cp.Space

	bodies []*RigidBody

	// Simulated time not yet consumed by a fixed substep.
	localTime float64

	simulatedTime float64
	substeps      uint64
}

// Create a new world.
func NewWorld(cfg Config) (*World, error) {
	if cfg.FixedTimeStep <= 0 {
		return nil, ErrInvalidTimeStep
	}

	space := cp.NewSpace()
	space.Iterations = cfg.Iterations
	space.SetGravity(cp.Vector{X: float64(cfg.Gravity[0]), Y: float64(cfg.Gravity[1])})

	switch cfg.Broadphase {
	case BroadphaseTree:
	case BroadphaseSpatialHash:
		if cfg.SpatialHashDim <= 0 || cfg.SpatialHashCount <= 0 {
			return nil, ErrUnknownBroadphase
		}
		space.UseSpatialHash(cfg.SpatialHashDim, cfg.SpatialHashCount)
	default:
		return nil, ErrUnknownBroadphase
	}

	// Bodies only collide if their depth ranges along Z overlap.
	handler := space.NewCollisionHandler(0, 0)
	handler.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
		a, b := arb.Bodies()
		rbA, okA := a.UserData.(*RigidBody)
		rbB, okB := b.UserData.(*RigidBody)
		if !okA || !okB {
			return true
		}
		return rbA.overlapsDepth(rbB)
	}

	return &World{
		logger: log.New("physics"),
		cfg:    cfg,
		space:  space,
		bodies: make([]*RigidBody, 0),
	}, nil
}

// Register a rigid body with the world. A body can only belong to one world.
func (w *World) AddRigidBody(rb *RigidBody) error {
	if rb.world != nil {
		return ErrBodyAlreadyAdded
	}

	w.space.AddBody(rb.body)
	w.space.AddShape(rb.shape)
	rb.world = w
	w.bodies = append(w.bodies, rb)

	w.logger.Debugf("registered rigid body %d (mass %.3f)", len(w.bodies)-1, rb.cfg.Mass)
	return nil
}

// Returns true if rb is registered with this world.
func (w *World) Contains(rb *RigidBody) bool {
	return rb != nil && rb.world == w
}

// Get the registered bodies in registration order.
func (w *World) Bodies() []*RigidBody {
	return w.bodies
}

// Advance the simulation by dt seconds.
//
// When maxSubsteps > 0, dt is added to an internal time accumulator and the
// world is stepped in whole FixedTimeStep increments; at most maxSubsteps
// substeps run per call and any time beyond that is dropped. Leftover time
// smaller than a substep carries over into the next call. When maxSubsteps is
// 0 the world takes a single variable step of length dt.
//
// The number of executed substeps is returned.
func (w *World) Advance(dt float64, maxSubsteps int) int {
	if dt <= 0 {
		return 0
	}

	stepLen := w.cfg.FixedTimeStep
	numSteps := 0
	if maxSubsteps > 0 {
		w.localTime += dt
		if w.localTime >= stepLen {
			numSteps = int(w.localTime / stepLen)
			w.localTime -= float64(numSteps) * stepLen
		}
		if numSteps > maxSubsteps {
			w.logger.Debugf("clamping %d substeps to %d", numSteps, maxSubsteps)
			numSteps = maxSubsteps
		}
	} else {
		stepLen = dt
		numSteps = 1
	}

	for i := 0; i < numSteps; i++ {
		w.space.Step(stepLen)
	}

	w.simulatedTime += float64(numSteps) * stepLen
	w.substeps += uint64(numSteps)
	return numSteps
}

// Total simulated time in seconds.
func (w *World) SimulatedTime() float64 {
	return w.simulatedTime
}

// Total number of executed substeps.
func (w *World) Substeps() uint64 {
	return w.substeps
}
