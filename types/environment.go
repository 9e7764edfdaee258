package types

import (
	"context"
	"errors"
)

// ErrPauseUnsupported is returned by environments that cannot signal a
// debug-pause resume for their platform.
var ErrPauseUnsupported = errors.New("environment does not support debug pause")

// Environment is the per-suite handle used for debug-pause signaling.
type Environment interface {
	// DisplayPause blocks until the environment reports that the user resumed
	// execution (for example from an attached debugger), the context is
	// canceled, or the environment determines it cannot support pausing, in
	// which case it returns ErrPauseUnsupported.
	DisplayPause(ctx context.Context) error
}
