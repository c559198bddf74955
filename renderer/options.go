package renderer

import (
	"github.com/guanlun/psan1-rendering-engine/physics"
	"github.com/guanlun/psan1-rendering-engine/tracer"
)

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// The ray generation program used for each launch.
	EntryPoint tracer.EntryPoint

	// Seed for the per-pixel random number generator state.
	Seed int64

	// Scene manifest and the directory containing it and the textures.
	ScenePath string
	AssetDir  string

	// Physics world setup.
	Physics physics.Config

	// Step the simulation while tracing frames.
	SimulationEnabled bool

	// Simulation time advanced per frame and the max number of fixed
	// substeps per frame.
	StepDt      float64
	MaxSubsteps int

	// Restart progressive accumulation when the frame is resized.
	ResetOnResize bool
}

// Get the default renderer options.
func DefaultOptions() Options {
	return Options{
		FrameW:            512,
		FrameH:            384,
		EntryPoint:        tracer.EntryDOF,
		Physics:           physics.DefaultConfig(),
		SimulationEnabled: true,
		StepDt:            1.0 / 100.0,
		MaxSubsteps:       10,
	}
}
