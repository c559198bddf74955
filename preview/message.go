package preview

import (
	"time"

	"github.com/guanlun/psan1-rendering-engine/renderer"
)

const (
	frameMessageType = "frame"
)

// FrameMessage is sent as a text message ahead of each PNG frame.
type FrameMessage struct {
	Type string `json:"type"`

	Tracer      string `json:"tracer"`
	FrameNumber uint32 `json:"frame_number"`
	Width       uint32 `json:"width"`
	Height      uint32 `json:"height"`

	Substeps        int     `json:"substeps"`
	SimulatedTime   float64 `json:"simulated_time"`
	SyncedColliders int     `json:"synced_colliders"`
	Rebuilds        uint64  `json:"rebuilds"`
	Rays            uint64  `json:"rays"`

	// Timings in milliseconds.
	PhysicsMs float64 `json:"physics_ms"`
	SyncMs    float64 `json:"sync_ms"`
	LaunchMs  float64 `json:"launch_ms"`
	RenderMs  float64 `json:"render_ms"`
}

// ControlMessage is sent by clients to forward a key press and/or a frame
// resize request ([width, height]) to the renderer.
type ControlMessage struct {
	Key    string   `json:"key,omitempty"`
	Resize []uint32 `json:"resize,omitempty"`
}

// ResizeRequest is a frame resize requested by a client.
type ResizeRequest struct {
	Width  uint32
	Height uint32
}

func newFrameMessage(stats renderer.FrameStats) FrameMessage {
	return FrameMessage{
		Type:            frameMessageType,
		Tracer:          stats.Tracer.Id,
		FrameNumber:     stats.FrameNumber,
		Width:           stats.Tracer.FrameW,
		Height:          stats.Tracer.FrameH,
		Substeps:        stats.Substeps,
		SimulatedTime:   stats.SimulatedTime,
		SyncedColliders: stats.SyncedColliders,
		Rebuilds:        stats.Rebuilds,
		Rays:            stats.Tracer.Rays,
		PhysicsMs:       millis(stats.PhysicsTime),
		SyncMs:          millis(stats.SyncTime),
		LaunchMs:        millis(stats.Tracer.LaunchTime),
		RenderMs:        millis(stats.RenderTime),
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
