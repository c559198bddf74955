package scene

import (
	"fmt"
)

// Scene is the registry of all objects, materials and lights. It owns its
// objects exclusively; membership is fixed once the scene is created.
type Scene struct {
	Camera InitialCamera

	Materials []*Material
	Objects   []Object

	// Area lights snapshotted from the emissive objects at construction.
	AreaLights []AreaLight

	numDynamic int
}

// Create a scene from a set of imported objects. Every object must reference
// a known material and names must be unique.
func NewScene(camera InitialCamera, materials []*Material, objects []Object) (*Scene, error) {
	names := make(map[string]struct{}, len(objects))
	sc := &Scene{
		Camera:    camera,
		Materials: materials,
		Objects:   make([]Object, 0, len(objects)),
	}

	for idx, obj := range objects {
		if obj.Material() < 0 || obj.Material() >= len(materials) {
			return nil, fmt.Errorf("scene: object %d (%s) references unknown material %d", idx, obj.Name(), obj.Material())
		}
		if _, exists := names[obj.Name()]; exists {
			return nil, fmt.Errorf("scene: duplicate object name %q", obj.Name())
		}
		names[obj.Name()] = struct{}{}

		if _, isDynamic := obj.(*DynamicObject); isDynamic {
			sc.numDynamic++
		}
		sc.Objects = append(sc.Objects, obj)
	}

	sc.AreaLights = collectAreaLights(sc.Objects)
	return sc, nil
}

// Get the number of collider-bearing objects.
func (sc *Scene) NumDynamic() int {
	return sc.numDynamic
}

// Get the collider-bearing objects in registration order.
func (sc *Scene) DynamicObjects() []*DynamicObject {
	out := make([]*DynamicObject, 0, sc.numDynamic)
	for _, obj := range sc.Objects {
		if dyn, ok := obj.(*DynamicObject); ok {
			out = append(out, dyn)
		}
	}
	return out
}

// Copy every rigid body pose into its object transform. Static objects are
// left untouched. Returns the number of synchronized objects.
func (sc *Scene) SyncColliders() int {
	synced := 0
	for _, obj := range sc.Objects {
		switch o := obj.(type) {
		case *DynamicObject:
			o.Collider().Step()
			synced++
		case *StaticObject:
		}
	}
	return synced
}

// Find an object by name.
func (sc *Scene) Object(name string) (Object, bool) {
	for _, obj := range sc.Objects {
		if obj.Name() == name {
			return obj, true
		}
	}
	return nil, false
}

// Scene statistics.
func (sc *Scene) Stats() string {
	return fmt.Sprintf(
		"objects: %d (%d dynamic), materials: %d, area lights: %d",
		len(sc.Objects), sc.numDynamic, len(sc.Materials), len(sc.AreaLights),
	)
}
