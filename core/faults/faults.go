// Package faults carries the error taxonomy shared by the response
// pipeline and its provider clients.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by where it originated.
type Kind string

const (
	// Network marks transient transport/connectivity failures.
	Network Kind = "network"
	// API marks non-2xx or malformed provider responses.
	API Kind = "api"
	// Validation marks failures detected before any call is attempted,
	// e.g. a missing credential.
	Validation Kind = "validation"
	// Audio marks synthesis/playback specific failures.
	Audio Kind = "audio"
	// Unknown is the catch-all for unclassified failures.
	Unknown Kind = "unknown"
)

// Error is a failure tagged with a Kind. It supports errors.Is/As, so the
// kind survives fmt.Errorf("...: %w", err) wrapping.
type Error struct {
	kind Kind
	err  error
}

func New(kind Kind, message string) *Error {
	return &Error{kind: kind, err: errors.New(message)}
}

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, err: fmt.Errorf(format, args...)}
}

// Wrap tags an existing error with a kind. Returns nil for a nil error. If
// the error already carries a kind, that kind is preserved.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}

	var tagged *Error
	if errors.As(err, &tagged) {
		return err
	}

	return &Error{kind: kind, err: err}
}

func (e *Error) Error() string {
	return e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Kind() Kind {
	return e.kind
}

// KindOf reports the kind of an error anywhere in err's chain, or Unknown
// when the chain carries no kind.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.kind
	}
	return Unknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
