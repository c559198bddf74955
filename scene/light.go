package scene

import "github.com/guanlun/psan1-rendering-engine/types"

// AreaLight is a parallelogram light source spanned by V1 and V2 from Corner.
type AreaLight struct {
	Corner types.Vec3
	V1     types.Vec3
	V2     types.Vec3

	Emission types.Vec3
}

// Get the light centroid.
func (l AreaLight) Center() types.Vec3 {
	return l.Corner.Add(l.V1.Mul(0.5)).Add(l.V2.Mul(0.5))
}

// Get the light surface normal.
func (l AreaLight) Normal() types.Vec3 {
	return l.V1.Cross(l.V2).Normalize()
}

// Create an area light for an emissive object. The light covers the bottom
// face of the object's world bounding box and faces down.
func NewAreaLight(obj Object) AreaLight {
	bbox := obj.WorldBBox()
	side := bbox[1].Sub(bbox[0])
	return AreaLight{
		Corner:   bbox[0],
		V1:       types.Vec3{side[0], 0, 0},
		V2:       types.Vec3{0, 0, side[2]},
		Emission: obj.Radiance(),
	}
}

func collectAreaLights(objects []Object) []AreaLight {
	lights := make([]AreaLight, 0)
	for _, obj := range objects {
		if obj.Emissive() {
			lights = append(lights, NewAreaLight(obj))
		}
	}
	return lights
}
