package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies user-correctable failures.
type ErrorKind string

const (
	KindValidation ErrorKind = "ValidationError"
	KindNotFound   ErrorKind = "NotFoundError"
	KindLimit      ErrorKind = "LimitError"
)

// Sentinels for errors.Is matching against an *Error of the same kind.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrLimit      = errors.New("limit exceeded")
)

// Error is a user-correctable command failure.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is lets errors.Is(err, ErrValidation) and friends match by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrLimit:
		return e.Kind == KindLimit
	}
	return false
}

// ValidationError builds a KindValidation error.
func ValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError builds a KindNotFound error.
func NotFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// LimitError builds a KindLimit error.
func LimitError(format string, args ...any) *Error {
	return &Error{Kind: KindLimit, Message: fmt.Sprintf(format, args...)}
}

// ErrNoRecord is returned by persistence backends when a player has no saved army.
var ErrNoRecord = errors.New("no saved army")
