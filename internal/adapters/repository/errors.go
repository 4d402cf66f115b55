package repository

import "errors"

// Sentinel kinds for table-store errors.
var (
	ErrKeyExists   = errors.New("row key already exists")
	ErrNotFound    = errors.New("row not found")
	ErrUnavailable = errors.New("store unavailable")
)
