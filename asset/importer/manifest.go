package importer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/guanlun/psan1-rendering-engine/types"
)

// Manifest is the on-disk description of a scene.
type Manifest struct {
	Objects []ObjectSpec `json:"objects"`
}

// ObjectSpec describes a single scene object.
type ObjectSpec struct {
	Name     string `json:"name"`
	Shape    string `json:"shape"`
	Material int    `json:"material"`

	HalfExtents *types.Vec3 `json:"halfExtents,omitempty"`
	Radius      float32     `json:"radius,omitempty"`

	Position types.Vec3  `json:"position"`
	Rotation *Rotation   `json:"rotation,omitempty"`
	Scale    *types.Vec3 `json:"scale,omitempty"`

	Emissive bool        `json:"emissive,omitempty"`
	Radiance *types.Vec3 `json:"radiance,omitempty"`

	// Objects with a physics block get a collider.
	Physics *PhysicsSpec `json:"physics,omitempty"`
}

// Rotation in axis-angle form; angle in radians.
type Rotation struct {
	Axis  types.Vec3 `json:"axis"`
	Angle float32    `json:"angle"`
}

// PhysicsSpec describes the rigid body attached to an object. A zero mass
// creates a static collider.
type PhysicsSpec struct {
	Mass        float64 `json:"mass"`
	Friction    float64 `json:"friction"`
	Restitution float64 `json:"restitution"`
}

// Decode a manifest.
func ReadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("importer: could not decode scene manifest: %s", err.Error())
	}
	return &m, nil
}

// Encode the manifest as indented JSON.
func (m *Manifest) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}
