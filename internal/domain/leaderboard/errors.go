package leaderboard

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrValidation = errors.New("invalid submission")
	ErrConflict   = errors.New("persistence conflict")
)
