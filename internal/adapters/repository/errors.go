package repository

import "errors"

// Sentinel kinds for report store errors.
var (
	ErrNotFound     = errors.New("session not found")
	ErrInvalidLimit = errors.New("invalid report limit")
	ErrInvalidPath  = errors.New("database path is required")
	ErrClosed       = errors.New("store is closed")
)
