package services

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrAlreadySpun         = errors.New("user has already spun")
	ErrPrizeNotFound       = errors.New("prize not found")
	ErrNoActivePrizes      = errors.New("no active prizes")
	ErrCodeSpaceExhausted  = errors.New("could not generate a unique code")
	ErrEmailTaken          = errors.New("email already registered")
	ErrIPAlreadyRegistered = errors.New("ip address already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrValidation          = errors.New("validation failed")
)

// ValidationError describes a rejected input field. It matches ErrValidation
// with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
