package domain

import "github.com/go-faster/errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates a value failed construction-time validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyExists indicates a write would overwrite an existing entity.
	ErrAlreadyExists = errors.New("already exists")
)
