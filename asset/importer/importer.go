package importer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/guanlun/psan1-rendering-engine/asset"
	"github.com/guanlun/psan1-rendering-engine/log"
	"github.com/guanlun/psan1-rendering-engine/physics"
	"github.com/guanlun/psan1-rendering-engine/scene"
	"github.com/guanlun/psan1-rendering-engine/types"
)

var (
	ErrUnknownShape     = errors.New("importer: unknown shape")
	ErrMissingName      = errors.New("importer: object name is required")
	ErrUnsupportedSpin  = errors.New("importer: physics objects may only rotate about the Z axis")
	ErrInvalidDimension = errors.New("importer: object dimensions must be positive")
)

// Importer turns a scene description into scene objects. Collider-bearing
// objects carry rigid bodies that are not yet registered with a world.
type Importer interface {
	Import(scenePath, assetDir string) ([]scene.Object, error)
}

// JSONImporter reads scene manifests.
type JSONImporter struct {
	logger log.Logger
}

// Create a manifest importer.
func New() *JSONImporter {
	return &JSONImporter{
		logger: log.New("importer"),
	}
}

// Import the manifest at scenePath. Relative paths are resolved against assetDir.
func (imp *JSONImporter) Import(scenePath, assetDir string) ([]scene.Object, error) {
	start := time.Now()

	res, err := asset.NewResourceIn(assetDir, scenePath)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	manifest, err := ReadManifest(res)
	if err != nil {
		return nil, err
	}

	objects, err := Build(manifest)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", res.Name(), err)
	}

	imp.logger.Noticef("imported %d objects from %s in %d ms", len(objects), res.Path(), time.Since(start).Nanoseconds()/1e6)
	return objects, nil
}

// Build scene objects from a manifest.
func Build(m *Manifest) ([]scene.Object, error) {
	objects := make([]scene.Object, 0, len(m.Objects))
	for index, spec := range m.Objects {
		obj, err := buildObject(spec)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", index, err)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func buildObject(spec ObjectSpec) (scene.Object, error) {
	if spec.Name == "" {
		return nil, ErrMissingName
	}

	desc := scene.ObjectDesc{
		Name:     spec.Name,
		Material: spec.Material,
		Position: spec.Position,
		Rotation: types.QuatIdent(),
		Scale:    types.Vec3{1, 1, 1},
		Emissive: spec.Emissive,
	}
	if spec.Scale != nil {
		desc.Scale = *spec.Scale
	}
	if spec.Radiance != nil {
		desc.Radiance = *spec.Radiance
	}
	if spec.Rotation != nil {
		desc.Rotation = types.QuatFromAxisAngle(spec.Rotation.Axis, spec.Rotation.Angle)
	}

	switch spec.Shape {
	case "box":
		if spec.HalfExtents == nil || spec.HalfExtents[0] <= 0 || spec.HalfExtents[1] <= 0 || spec.HalfExtents[2] <= 0 {
			return nil, ErrInvalidDimension
		}
		desc.Geometry = scene.Geometry{Type: scene.BoxGeometry, HalfExtents: *spec.HalfExtents}
	case "sphere":
		if spec.Radius <= 0 {
			return nil, ErrInvalidDimension
		}
		desc.Geometry = scene.Geometry{Type: scene.SphereGeometry, Radius: spec.Radius}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownShape, spec.Shape)
	}

	if spec.Physics == nil {
		return scene.NewStaticObject(desc), nil
	}

	angle, err := zAngle(spec.Rotation)
	if err != nil {
		return nil, err
	}

	// Collision shapes are sized in world units.
	bodyCfg := physics.BodyConfig{
		Mass:        spec.Physics.Mass,
		Position:    spec.Position,
		Rotation:    angle,
		Friction:    spec.Physics.Friction,
		Restitution: spec.Physics.Restitution,
	}
	switch desc.Geometry.Type {
	case scene.SphereGeometry:
		bodyCfg.Shape = physics.SphereShape
		bodyCfg.Radius = desc.Geometry.Radius * maxComponent(desc.Scale)
	default:
		bodyCfg.Shape = physics.BoxShape
		bodyCfg.HalfExtents = desc.Geometry.HalfExtents.MulVec(desc.Scale)
	}

	rb, err := physics.NewRigidBody(bodyCfg)
	if err != nil {
		return nil, err
	}
	return scene.NewDynamicObject(desc, rb), nil
}

// Get the rotation angle about +Z. Other rotation axes can not be simulated.
func zAngle(rot *Rotation) (float32, error) {
	if rot == nil || rot.Angle == 0 {
		return 0, nil
	}
	axis := rot.Axis.Normalize()
	if math.Abs(float64(axis[0])) > 1e-5 || math.Abs(float64(axis[1])) > 1e-5 {
		return 0, ErrUnsupportedSpin
	}
	if axis[2] < 0 {
		return -rot.Angle, nil
	}
	return rot.Angle, nil
}

func maxComponent(v types.Vec3) float32 {
	return float32(math.Max(float64(v[0]), math.Max(float64(v[1]), float64(v[2]))))
}
