package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine errors
type ErrorKind string

const (
	KindInvalidReference     ErrorKind = "INVALID_REFERENCE"
	KindValidation           ErrorKind = "VALIDATION"
	KindPersistence          ErrorKind = "PERSISTENCE"
	KindSimulationDegenerate ErrorKind = "SIMULATION_DEGENERATE"
)

// Sentinel errors for errors.Is checks
var (
	ErrInvalidReference     = &Error{Kind: KindInvalidReference, Message: "invalid node reference"}
	ErrValidation           = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrPersistence          = &Error{Kind: KindPersistence, Message: "persistence failure"}
	ErrSimulationDegenerate = &Error{Kind: KindSimulationDegenerate, Message: "degenerate simulation input"}
)

// Error is an engine error with a kind, the failed operation and an
// optional cause
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Op      string    `json:"op,omitempty"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// NewError creates an error of the same kind as the sentinel
func NewError(kind *Error, message string) *Error {
	return &Error{Kind: kind.Kind, Message: message}
}

// Errorf creates an error of the sentinel's kind with a formatted message
func Errorf(kind *Error, format string, args ...any) *Error {
	return NewError(kind, fmt.Sprintf(format, args...))
}

// PersistenceError wraps a storage failure
func PersistenceError(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Op: op, Message: "storage " + op + " failed", Err: err}
}

// WithOp records the operation that failed
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf extracts the error kind from an error chain, or "" when err is not
// an engine error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
