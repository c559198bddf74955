package cpu

import (
	"math"

	"github.com/guanlun/psan1-rendering-engine/scene"
	"github.com/guanlun/psan1-rendering-engine/scene/bvh"
	"github.com/guanlun/psan1-rendering-engine/types"
)

// Max number of group children stored in a bvh leaf.
const maxLeafItems = 2

// An instance snapshots a group child's transform at build time.
type instance struct {
	index  int
	object scene.Object

	invMatrix    types.Mat4
	normalMatrix types.Mat4

	bbox   [2]types.Vec3
	center types.Vec3
}

func (in *instance) BBox() [2]types.Vec3 {
	return in.bbox
}

func (in *instance) Center() types.Vec3 {
	return in.center
}

// A resolved world-space hit.
type hit struct {
	t        float32
	instance *instance
	point    types.Vec3
	normal   types.Vec3
	u, v     float32
}

// accel is a BVH over the top-level group.
type accel struct {
	nodes     []bvh.Node
	instances []*instance
}

// Build the acceleration structure from the current group children.
func buildAccel(children []scene.Object) *accel {
	acc := &accel{
		instances: make([]*instance, 0, len(children)),
	}
	if len(children) == 0 {
		return acc
	}

	workList := make([]bvh.BoundedVolume, len(children))
	for index, obj := range children {
		m := obj.Transform().Matrix()
		inv := m.Inv()
		bbox := obj.WorldBBox()
		workList[index] = &instance{
			index:        index,
			object:       obj,
			invMatrix:    inv,
			normalMatrix: inv.Transpose(),
			bbox:         bbox,
			center:       bbox[0].Add(bbox[1]).Mul(0.5),
		}
	}

	acc.nodes = bvh.Build(workList, maxLeafItems, func(leaf *bvh.Node, items []bvh.BoundedVolume) {
		leaf.SetItems(uint32(len(acc.instances)), uint32(len(items)))
		for _, item := range items {
			acc.instances = append(acc.instances, item.(*instance))
		}
	}, bvh.SurfaceAreaHeuristic)

	return acc
}

// Find the closest hit along r. If anyHit is set the search stops at the
// first occluder; emissive objects never occlude.
func (acc *accel) intersect(r ray, anyHit bool) (hit, bool) {
	if len(acc.nodes) == 0 {
		return hit{}, false
	}

	invD := types.Vec3{1 / r.dir[0], 1 / r.dir[1], 1 / r.dir[2]}
	closest := hit{t: float32(math.MaxFloat32)}
	found := false
	tMax := r.tMax

	var stack [64]uint32
	stackLen := 1
	for stackLen > 0 {
		stackLen--
		node := &acc.nodes[stack[stackLen]]
		if !hitsBBox(node.Min, node.Max, r.origin, invD, r.tMin, tMax) {
			continue
		}

		if !node.IsLeaf() {
			left, right := node.Children()
			stack[stackLen] = left
			stack[stackLen+1] = right
			stackLen += 2
			continue
		}

		first, count := node.Items()
		for _, in := range acc.instances[first : first+count] {
			if anyHit && in.object.Emissive() {
				continue
			}

			o := types.TransformPoint(in.invMatrix, r.origin)
			d := types.TransformDir(in.invMatrix, r.dir)
			lh, ok := intersectGeometry(in.object.Geometry(), o, d, r.tMin, tMax)
			if !ok {
				continue
			}
			if anyHit {
				return hit{t: lh.t, instance: in}, true
			}

			found = true
			tMax = lh.t
			closest = hit{
				t:        lh.t,
				instance: in,
				normal:   types.TransformDir(in.normalMatrix, lh.normal).Normalize(),
				u:        lh.u,
				v:        lh.v,
			}
		}
	}

	if found {
		closest.point = r.at(closest.t)
	}
	return closest, found
}
