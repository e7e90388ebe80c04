package services

import (
	"errors"
)

// ErrUpstream wraps failures of the persistence service.
var ErrUpstream = errors.New("persistence service error")

// ErrAnonymousDisabled is returned when anonymous posting is switched off.
var ErrAnonymousDisabled = errors.New("anonymous comments are disabled")

// ValidationError reports bad caller input. Message is safe to show.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
