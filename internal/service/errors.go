package service

import "errors"

var (
	// ErrNotFound means the referenced job, track, or file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means the operation is illegal for the job's current status.
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrValidation means the request carried malformed metadata.
	ErrValidation = errors.New("validation failed")
)
