package beam

import "errors"

// Domain errors for ensemble construction and tracking.
var (
	// ErrBadBeta0 indicates a reference velocity outside (0, 1].
	ErrBadBeta0 = errors.New("beam: beta0 must be in (0, 1]")

	// ErrBadDelta indicates a momentum deviation with delta + 1 <= 0.
	ErrBadDelta = errors.New("beam: delta + 1 must be positive")

	// ErrEmptyEnsemble indicates an ensemble with no particles.
	ErrEmptyEnsemble = errors.New("beam: ensemble has no particles")
)
