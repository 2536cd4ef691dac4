package identity

import (
	"errors"
	"strings"
)

var (
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidLogin   = errors.New("invalid login")
	ErrInvalidEmail   = errors.New("invalid email")
	ErrWeakPassword   = errors.New("password rejected")
	ErrLoginTaken     = errors.New("login already taken")
	ErrEmailTaken     = errors.New("email already registered")
	ErrBadCredentials = errors.New("wrong login or password")
)

// ValidationError lists every rule an input broke. errors.Is matches Kind.
type ValidationError struct {
	Kind     error
	Problems []string
}

func (e *ValidationError) Error() string {
	return e.Kind.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error { return e.Kind }
