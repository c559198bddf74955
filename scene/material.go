package scene

import (
	"github.com/guanlun/psan1-rendering-engine/asset/texture"
	"github.com/guanlun/psan1-rendering-engine/types"
)

// Names of the programs bound to each material.
const (
	ClosestHitRadiance = "closest_hit_radiance"
	AnyHitShadow       = "any_hit_shadow"
)

// Material is a phong material descriptor shared by imported objects.
type Material struct {
	Name string

	// Ambient, specular and reflective coefficients.
	Ka types.Vec3
	Ks types.Vec3
	Kr types.Vec3

	// Shininess exponent.
	Ns int32

	// Reflection rays whose importance drops below the cutoff return
	// CutoffColor instead of recursing.
	ImportanceCutoff   float32
	CutoffColor        types.Vec3
	ReflectionMaxDepth int32

	ClosestHitProgram string
	AnyHitProgram     string

	// Diffuse texture path (relative to the asset dir) and the loaded texture.
	KdMap   string
	Texture *texture.Texture
}

// Get the default materials: a wood floor, a checkerboard used to aid
// positioning and a cloth material.
func DefaultMaterials() []*Material {
	return []*Material{
		newPhong("wood", types.Vec3{0.2, 0.2, 0.2}, types.Vec3{0.8, 0.8, 0.8}, 32, "wood_floor.png"),
		newPhong("checkerboard", types.Vec3{0.6, 0.6, 0.6}, types.Vec3{0, 0, 0}, 64, "pin-diffuse.png"),
		newPhong("cloth", types.Vec3{0.2, 0.2, 0.2}, types.Vec3{0.7, 0.7, 0.7}, 64, "cloth.png"),
	}
}

func newPhong(name string, ka, kr types.Vec3, ns int32, kdMap string) *Material {
	return &Material{
		Name:               name,
		Ka:                 ka,
		Ks:                 types.Vec3{0.5, 0.5, 0.5},
		Kr:                 kr,
		Ns:                 ns,
		ImportanceCutoff:   0.01,
		CutoffColor:        types.Vec3{0.2, 0.2, 0.2},
		ReflectionMaxDepth: 5,
		ClosestHitProgram:  ClosestHitRadiance,
		AnyHitProgram:      AnyHitShadow,
		KdMap:              kdMap,
	}
}

// Get the diffuse colour at (u, v). Untextured materials are mid grey.
func (m *Material) Diffuse(u, v float32) types.Vec3 {
	if m.Texture == nil {
		return types.Vec3{0.5, 0.5, 0.5}
	}
	return m.Texture.Sample(u, v)
}
