package scene

import (
	"fmt"
	"math"

	"github.com/guanlun/psan1-rendering-engine/types"
)

// CameraData is the per-frame camera state delivered by the input
// collaborator. U, V and W span the view frustum: W points from the eye to
// the center of the image plane and U/V are scaled to its half extents.
type CameraData struct {
	Eye types.Vec3
	U   types.Vec3
	V   types.Vec3
	W   types.Vec3

	// Set by the collaborator whenever the state differs from the previous frame.
	Changed bool
}

func (c CameraData) String() string {
	return fmt.Sprintf(
		"Camera:\neye: (%3.3f, %3.3f, %3.3f)\nU  : (%3.3f, %3.3f, %3.3f)\nV  : (%3.3f, %3.3f, %3.3f)\nW  : (%3.3f, %3.3f, %3.3f)",
		c.Eye[0], c.Eye[1], c.Eye[2],
		c.U[0], c.U[1], c.U[2],
		c.V[0], c.V[1], c.V[2],
		c.W[0], c.W[1], c.W[2],
	)
}

// InitialCamera describes a look-at camera.
type InitialCamera struct {
	Eye    types.Vec3
	LookAt types.Vec3
	Up     types.Vec3

	// Vertical field of view in degrees.
	VFov float32
}

// The camera used when a scene does not define one.
func DefaultCamera() InitialCamera {
	return InitialCamera{
		Eye:    types.Vec3{30, 15, 7.5},
		LookAt: types.Vec3{7, 0, 7},
		Up:     types.Vec3{0, 1, 0},
		VFov:   45,
	}
}

// Calculate the U, V, W basis for the given image aspect ratio.
func (c InitialCamera) Basis(aspect float32) CameraData {
	w := c.LookAt.Sub(c.Eye)
	wLen := w.Len()
	u := w.Cross(c.Up).Normalize()
	v := u.Cross(w).Normalize()

	vLen := wLen * float32(math.Tan(0.5*float64(c.VFov)*math.Pi/180.0))
	uLen := vLen * aspect
	return CameraData{
		Eye: c.Eye,
		U:   u.Mul(uLen),
		V:   v.Mul(vLen),
		W:   w,
	}
}

// Orbit the eye around the look-at point by angle radians about the up axis.
func (c InitialCamera) Orbit(angle float32) InitialCamera {
	rot := types.QuatFromAxisAngle(c.Up, angle)
	offset := c.Eye.Sub(c.LookAt)
	c.Eye = c.LookAt.Add(types.Vec3(rot.Rotate([3]float32(offset))))
	return c
}

// Calculate the depth-of-field focal scale. The focal distance is the
// length of W adjusted by offset and floored at epsilon; the scale maps W
// onto the focal plane. A W shorter than epsilon has no view direction and
// yields a scale of 1.
func FocalScale(w types.Vec3, offset, epsilon float32) float32 {
	wLen := w.Len()
	if wLen == 0 || wLen < epsilon {
		return 1
	}
	focalDistance := wLen + offset
	if focalDistance < epsilon {
		focalDistance = epsilon
	}
	return focalDistance / wLen
}
