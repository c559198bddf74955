package tracer

import "errors"

var (
	ErrMissingProgram     = errors.New("tracer: missing ray generation program")
	ErrBufferSizeMismatch = errors.New("tracer: buffer dimensions do not match launch dimensions")
	ErrNoLights           = errors.New("tracer: light buffer is empty")
	ErrSceneNotDefined    = errors.New("tracer: no scene defined")
	ErrNotInitialized     = errors.New("tracer: tracer not set up")
	ErrInvalidEntryPoint  = errors.New("tracer: invalid entry point")
)
