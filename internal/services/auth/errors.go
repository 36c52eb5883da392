package auth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidInput       = errors.New("invalid input")
	ErrBackendUnavailable = errors.New("identity backend unavailable")
)

// ErrorKind classifies authentication failures for callers that only need the category
type ErrorKind string

const (
	KindCredentials ErrorKind = "credentials"
	KindNetwork     ErrorKind = "network"
	KindSession     ErrorKind = "session"
	KindValidation  ErrorKind = "validation"
)

// Error is the structured failure returned by every Facade operation
type Error struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Op: op, Kind: kindOf(err), Err: err}
}

func kindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrEmailExists):
		return KindCredentials
	case errors.Is(err, ErrBackendUnavailable):
		return KindNetwork
	default:
		return KindSession
	}
}

// KindOf returns the kind of an auth error, or "" when err is not one
func KindOf(err error) ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
