package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnknownPolicy = errors.New("unknown policy")
	ErrInvalidSlug   = errors.New("invalid slug")
	ErrInvalidPath   = errors.New("invalid path")
)
