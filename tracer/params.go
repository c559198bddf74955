package tracer

import (
	"fmt"

	"github.com/guanlun/psan1-rendering-engine/types"
)

// Params holds the named launch parameters read by every program during a
// launch. The frame loop owns the struct and rewrites the camera fields
// before each launch.
type Params struct {
	// Camera basis.
	Eye types.Vec3
	U   types.Vec3
	V   types.Vec3
	W   types.Vec3

	// Number of frames accumulated since the last camera change. A launch
	// with frame number 0 discards previously accumulated samples.
	FrameNumber uint32

	// Depth of field.
	ApertureRadius float32
	FocalScale     float32
	DistanceOffset float32

	// Ray offset used to avoid self intersection.
	SceneEpsilon float32
	MaxDepth     int32

	RadianceRayType RayType
	ShadowRayType   RayType

	// Sub-pixel jitter added to the first sample of every pixel.
	Jitter types.Vec4

	AmbientLightColor types.Vec3

	// Colour written for rays that fail.
	BadColor types.Vec3

	// Background gradient.
	BgLightColor types.Vec3
	BgDarkColor  types.Vec3
	Up           types.Vec3
}

// Get the default launch parameters.
func DefaultParams() Params {
	return Params{
		ApertureRadius:    0.1,
		DistanceOffset:    -1.5,
		SceneEpsilon:      1e-3,
		MaxDepth:          10,
		RadianceRayType:   RadianceRay,
		ShadowRayType:     ShadowRay,
		AmbientLightColor: types.Vec3{0.4, 0.4, 0.4},
		BadColor:          types.Vec3{0, 1, 1},
		BgLightColor:      types.Vec3{1, 1, 1},
		BgDarkColor:       types.Vec3{0.3, 0.3, 0.3},
		Up:                types.Vec3{-14, -14, -7}.Normalize().Add(types.Vec3{0, 1, 0}).Normalize(),
	}
}

func (p Params) String() string {
	return fmt.Sprintf(
		"frame: %d, aperture: %.3f, distance offset: %.3f, focal scale: %.3f",
		p.FrameNumber, p.ApertureRadius, p.DistanceOffset, p.FocalScale,
	)
}
