package sheetproc

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a Handler operation is an *Error
// carrying one of these; KindOf reports it. errors.Is also sees kinds held
// by the wrapped cause, so an error may match more than one.
var (
	ErrConfig           = errors.New("configuration unavailable")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotFound         = errors.New("not found")
	ErrRemote           = errors.New("remote service error")
	ErrValidation       = errors.New("invalid input")
	ErrConflict         = errors.New("sheet changed during operation")
)

// Error describes a failed Handler operation
type Error struct {
	Op   string // operation name, e.g. "UpdateRecord"
	Kind error  // one of the Err* kinds
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the kind of this error
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// KindOf returns the kind of err, or nil if err is not one of ours
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, kind := range []error{ErrConfig, ErrNotAuthenticated, ErrNotFound, ErrRemote, ErrValidation, ErrConflict} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

func newError(op string, kind error, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// classify maps a backend error onto an error kind. Backends signal
// missing spreadsheets, rejected credentials and bad input by wrapping the
// matching kind; everything else is a remote failure.
func classify(op string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return newError(op, ErrNotFound, err)
	case errors.Is(err, ErrNotAuthenticated):
		return newError(op, ErrNotAuthenticated, err)
	case errors.Is(err, ErrValidation):
		return newError(op, ErrValidation, err)
	default:
		return newError(op, ErrRemote, err)
	}
}
