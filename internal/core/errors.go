package core

import "errors"

var (
	ErrDisabled     = errors.New("feature disabled")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNoProvider   = errors.New("provider not configured")
)
