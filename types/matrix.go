package types

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Matrices and quaternions are backed by mathgl so that transforms can be
// composed without reimplementing inversion and rotation helpers.
type Mat4 = mgl32.Mat4
type Quat = mgl32.Quat

// Identity matrix.
func Ident4() Mat4 {
	return mgl32.Ident4()
}

// Identity quaternion.
func QuatIdent() Quat {
	return mgl32.QuatIdent()
}

// Create a quaternion that rotates angle radians around axis.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	return mgl32.QuatRotate(angle, mgl32.Vec3(axis.Normalize()))
}

// Build a translate * rotate * scale matrix.
func TRS(pos Vec3, rot Quat, scale Vec3) Mat4 {
	return mgl32.Translate3D(pos[0], pos[1], pos[2]).
		Mul4(rot.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// Transform a point (w = 1) by m.
func TransformPoint(m Mat4, p Vec3) Vec3 {
	return Vec3(mgl32.TransformCoordinate(mgl32.Vec3(p), m))
}

// Transform a direction (w = 0) by m.
func TransformDir(m Mat4, d Vec3) Vec3 {
	return Vec3(mgl32.TransformNormal(mgl32.Vec3(d), m))
}

// Check whether two matrices are equal within epsilon.
func Mat4ApproxEqual(m1, m2 Mat4, epsilon float32) bool {
	for i := range m1 {
		if float32(math.Abs(float64(m1[i]-m2[i]))) > epsilon {
			return false
		}
	}
	return true
}
