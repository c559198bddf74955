package renderer

import "errors"

var (
	ErrNoAreaLights         = errors.New("renderer: scene does not contain any emissive objects")
	ErrUnregisteredCollider = errors.New("renderer: collider body is not registered with the physics world")
	ErrInvalidFrameSize     = errors.New("renderer: frame dimensions must be positive and index at most 2^32-1 pixels")
)
