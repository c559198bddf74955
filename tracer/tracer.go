package tracer

import (
	"fmt"
	"time"

	"github.com/guanlun/psan1-rendering-engine/scene"
)

// An entry point selects the ray generation program used by a launch.
type EntryPoint uint8

const (
	// Thin lens camera with depth of field.
	EntryDOF EntryPoint = iota

	// Pinhole camera that keeps refining pixels until their variance converges.
	EntryAdaptivePinhole

	// Plain pinhole camera.
	EntryPinhole

	NumEntryPoints = 3
)

// Get the entry point name.
func (e EntryPoint) String() string {
	switch e {
	case EntryDOF:
		return "dof"
	case EntryAdaptivePinhole:
		return "adaptive_pinhole"
	case EntryPinhole:
		return "pinhole"
	}
	return fmt.Sprintf("entry(%d)", uint8(e))
}

// Parse an entry point name.
func ParseEntryPoint(name string) (EntryPoint, error) {
	for e := EntryPoint(0); e < NumEntryPoints; e++ {
		if e.String() == name {
			return e, nil
		}
	}
	return 0, fmt.Errorf("tracer: unknown entry point %q", name)
}

type RayType uint32

const (
	RadianceRay RayType = iota
	ShadowRay

	NumRayTypes = 2
)

// The per-ray recursion stack size requested at setup.
const DefaultStackSize = 2400

// Setup options for a tracer context.
type Config struct {
	NumEntryPoints int
	NumRayTypes    int
	StackSize      int
}

// Get the config used by the frame loop.
func DefaultConfig() Config {
	return Config{
		NumEntryPoints: NumEntryPoints,
		NumRayTypes:    NumRayTypes,
		StackSize:      DefaultStackSize,
	}
}

// SceneData is the scene state uploaded to a tracer. The group is shared with
// the frame loop: the loop marks it dirty and the tracer rebuilds its index
// before reading it.
type SceneData struct {
	Group     *scene.Group
	Materials []*scene.Material
	Lights    []scene.AreaLight
}

// Tracer statistics for the last launch.
type Stats struct {
	// The launch dimensions.
	FrameW uint32
	FrameH uint32

	// True if the acceleration structure was rebuilt before the launch.
	Rebuilt bool

	// Number of nodes in the acceleration structure.
	BvhNodes int

	// Number of traced radiance and shadow rays.
	Rays uint64

	// The time spent rebuilding the acceleration structure and tracing.
	RebuildTime time.Duration
	LaunchTime  time.Duration

	// Rows traced by each launch worker.
	Blocks []BlockStat
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Declare entry points, ray types and stack size. Setup fails if a
	// program for any declared entry point is missing.
	Setup(Config) error

	// Upload the scene group, materials and area lights.
	SetScene(*SceneData) error

	// Trace a w x h frame using the given entry point. The accumulation
	// buffers and the output buffer must match the launch dimensions.
	Launch(entry EntryPoint, w, h uint32, params *Params, buffers *Buffers, out *Output) error

	// Retrieve last launch statistics.
	Stats() *Stats

	// Shutdown and cleanup tracer.
	Close()
}
