package repository

import "errors"

// Sentinel kinds for decision store errors.
var (
	ErrNotFound        = errors.New("decision not found")
	ErrAlreadyReviewed = errors.New("decision already reviewed")
	ErrInvalidLimit    = errors.New("invalid pending list limit")
	ErrMissingID       = errors.New("decision submission id must not be empty")
)
