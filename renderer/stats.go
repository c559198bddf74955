package renderer

import "time"

type TracerStat struct {
	// The tracer id.
	Id string

	// Launch dimensions.
	FrameW uint32
	FrameH uint32

	// Number of traced rays.
	Rays uint64

	// True if the acceleration structure was rebuilt for this frame.
	Rebuilt  bool
	BvhNodes int

	RebuildTime time.Duration
	LaunchTime  time.Duration
}

type FrameStats struct {
	// Tracer stats for the launch.
	Tracer TracerStat

	// The frame number passed to the launch.
	FrameNumber uint32

	// Physics substeps executed for this frame and the total simulated time.
	Substeps      int
	SimulatedTime float64

	// Number of collider poses copied into the scene graph.
	SyncedColliders int

	// Total number of acceleration structure rebuilds.
	Rebuilds uint64

	PhysicsTime time.Duration
	SyncTime    time.Duration

	// Total time for the entire frame.
	RenderTime time.Duration
}
