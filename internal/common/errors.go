package common

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	// ErrUnauthorized is returned when an operation needs an authenticated caller and has none.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller does not own the row it tries to mutate.
	ErrForbidden = errors.New("forbidden")
)
