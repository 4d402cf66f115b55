package stats

import "errors"

// Sentinel kinds for statistics errors.
var (
	ErrValidation = errors.New("invalid session")
)
