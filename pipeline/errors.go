package pipeline

import "errors"

// The pipeline's error taxonomy. WouldBlock (ring.ErrWouldBlock) never
// surfaces past Process: it is the normal suspension signal and is
// swallowed by the run loop. Everything below aborts Process and is
// returned to the caller, wrapped with the failing stage's name.
var (
	ErrInvalidArgument = errors.New("pipeline: invalid argument")
	ErrUnsupported     = errors.New("pipeline: unsupported format or kind")
	ErrOutOfMemory     = errors.New("pipeline: out of memory")
	ErrIO              = errors.New("pipeline: ring inconsistency or downstream has no room")
	ErrNotFound        = errors.New("pipeline: not found")
)
