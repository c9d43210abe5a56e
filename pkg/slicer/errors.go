package slicer

import (
	"errors"
	"fmt"

	"github.com/Faultbox/layerslice/pkg/mesh"
)

// Slicing errors.
var (
	ErrInvalidStep       = errors.New("plane step must be positive and finite")
	ErrInvariantViolated = errors.New("invariant violated")
	ErrIncomplete        = errors.New("not all layers completed")
	ErrSchedulerClosed   = errors.New("scheduler no longer accepts work")
)

// InvariantError reports a state the sweep algorithms can only reach
// through corrupt input or a bug: unsorted events, NaN coordinates, or a
// column whose winding does not return to zero.
type InvariantError struct {
	Stage  string  // "z-sweep" or "scanline"
	Coord  float64 // sweep position at which the check failed
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s at %g: %s", ErrInvariantViolated, e.Stage, e.Coord, e.Detail)
}

// Is makes errors.Is(err, ErrInvariantViolated) match.
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariantViolated
}

// LayerError ties a failure to the layer it happened on.
type LayerError struct {
	Index int
	Z     float32
	Err   error
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("layer %d (z=%g): %v", e.Index, e.Z, e.Err)
}

func (e *LayerError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err was caused by the arguments to Slice
// rather than by the slicing itself. Input errors are returned before any
// work is scheduled.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidStep) ||
		errors.Is(err, mesh.ErrEmptyMesh) ||
		errors.Is(err, mesh.ErrInvalidIndex) ||
		errors.Is(err, mesh.ErrNonFinite)
}
