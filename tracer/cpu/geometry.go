package cpu

import (
	"math"

	"github.com/guanlun/psan1-rendering-engine/scene"
	"github.com/guanlun/psan1-rendering-engine/types"
)

type ray struct {
	origin types.Vec3
	dir    types.Vec3
	tMin   float32
	tMax   float32
}

func (r ray) at(t float32) types.Vec3 {
	return r.origin.Add(r.dir.Mul(t))
}

// A surface hit in object space.
type localHit struct {
	t      float32
	normal types.Vec3
	u, v   float32
}

// Intersect a ray expressed in object space with the object geometry. The
// ray direction is not normalized so t is shared with the world-space ray.
func intersectGeometry(g scene.Geometry, o, d types.Vec3, tMin, tMax float32) (localHit, bool) {
	switch g.Type {
	case scene.SphereGeometry:
		return intersectSphere(g.Radius, o, d, tMin, tMax)
	default:
		return intersectBox(g.HalfExtents, o, d, tMin, tMax)
	}
}

func intersectBox(ext, o, d types.Vec3, tMin, tMax float32) (localHit, bool) {
	tNear := float32(-math.MaxFloat32)
	tFar := float32(math.MaxFloat32)
	nearAxis, farAxis := 0, 0

	for axis := 0; axis < 3; axis++ {
		if d[axis] == 0 {
			if o[axis] < -ext[axis] || o[axis] > ext[axis] {
				return localHit{}, false
			}
			continue
		}
		invD := 1 / d[axis]
		t0 := (-ext[axis] - o[axis]) * invD
		t1 := (ext[axis] - o[axis]) * invD
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tNear {
			tNear, nearAxis = t0, axis
		}
		if t1 < tFar {
			tFar, farAxis = t1, axis
		}
		if tNear > tFar {
			return localHit{}, false
		}
	}

	t, axis := tNear, nearAxis
	if t < tMin {
		// origin inside the box
		t, axis = tFar, farAxis
	}
	if t < tMin || t > tMax {
		return localHit{}, false
	}

	p := o.Add(d.Mul(t))
	var n types.Vec3
	if p[axis] > 0 {
		n[axis] = 1
	} else {
		n[axis] = -1
	}

	// Project the hit point onto the two remaining axes.
	ua, va := (axis+1)%3, (axis+2)%3
	if axis == 1 {
		ua, va = 0, 2
	}
	return localHit{
		t:      t,
		normal: n,
		u:      0.5 * (p[ua]/ext[ua] + 1),
		v:      0.5 * (p[va]/ext[va] + 1),
	}, true
}

func intersectSphere(radius float32, o, d types.Vec3, tMin, tMax float32) (localHit, bool) {
	a := d.Dot(d)
	b := o.Dot(d)
	c := o.Dot(o) - radius*radius
	disc := b*b - a*c
	if disc < 0 || a == 0 {
		return localHit{}, false
	}

	sq := float32(math.Sqrt(float64(disc)))
	t := (-b - sq) / a
	if t < tMin {
		t = (-b + sq) / a
	}
	if t < tMin || t > tMax {
		return localHit{}, false
	}

	p := o.Add(d.Mul(t))
	n := p.Normalize()
	return localHit{
		t:      t,
		normal: n,
		u:      float32(math.Atan2(float64(n[2]), float64(n[0]))/(2*math.Pi)) + 0.5,
		v:      float32(math.Acos(float64(clamp(n[1], -1, 1))) / math.Pi),
	}, true
}

func clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Slab test against an axis-aligned box using the inverse ray direction.
func hitsBBox(min, max, o, invD types.Vec3, tMin, tMax float32) bool {
	for axis := 0; axis < 3; axis++ {
		t0 := (min[axis] - o[axis]) * invD[axis]
		t1 := (max[axis] - o[axis]) * invD[axis]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMax < tMin {
			return false
		}
	}
	return true
}
