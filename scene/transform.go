package scene

import "github.com/guanlun/psan1-rendering-engine/types"

// Transform wraps the world matrix of a scene object. Every Set bumps a
// version counter so callers can tell whether a transform was written.
type Transform struct {
	matrix  types.Mat4
	version uint64
}

// Create a new transform.
func NewTransform(m types.Mat4) *Transform {
	return &Transform{matrix: m}
}

// Get the world matrix.
func (t *Transform) Matrix() types.Mat4 {
	return t.matrix
}

// Overwrite the world matrix.
func (t *Transform) Set(m types.Mat4) {
	t.matrix = m
	t.version++
}

// Number of times the matrix has been written since construction.
func (t *Transform) Version() uint64 {
	return t.version
}
