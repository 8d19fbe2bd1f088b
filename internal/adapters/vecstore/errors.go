package vecstore

import "errors"

// Sentinel kinds for index errors.
var (
	ErrNotFound    = errors.New("embedding not found")
	ErrEmptyQuery  = errors.New("query embedding must not be empty")
	ErrDimMismatch = errors.New("embedding dimension mismatch")
	ErrEmptyRecord = errors.New("record embedding must not be empty")
	ErrMissingID   = errors.New("record submission id must not be empty")
)
