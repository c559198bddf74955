package physics

import "errors"

var (
	ErrBodyAlreadyAdded  = errors.New("physics: rigid body already registered with a world")
	ErrNegativeMass      = errors.New("physics: rigid body mass must not be negative")
	ErrInvalidShape      = errors.New("physics: rigid body shape has zero or negative extents")
	ErrInvalidTimeStep   = errors.New("physics: fixed time step must be positive")
	ErrUnknownBroadphase = errors.New("physics: unknown broadphase type")
)
