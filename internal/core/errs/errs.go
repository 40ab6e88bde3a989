// Package errs defines the failure taxonomy inspected by the sync
// orchestrator. Failures carry a tagged kind instead of relying on error
// types at the catch site:
//
//   - MissingElement: an expected record (rollup store entry, enqueue) was
//     absent. Recoverable; the unresolved window is retried on the next pass.
//   - Transport: a remote call did not succeed. Usually degraded to a
//     sentinel value at the call site rather than propagated.
//   - Fatal: everything else. Terminates the service unless the
//     catch-all-errors policy is enabled.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingElement marks a recoverable expected-element-absent failure.
	ErrMissingElement = errors.New("missing element")

	// ErrTransport marks a remote call failure.
	ErrTransport = errors.New("transport failure")
)

// Kind identifies the orchestrator-visible failure class.
type Kind string

const (
	KindMissingElement Kind = "missing_element"
	KindTransport      Kind = "transport"
	KindFatal          Kind = "fatal"
)

// MissingElement wraps the name of an absent element into a recoverable error.
func MissingElement(what string) error {
	return fmt.Errorf("%w: %s", ErrMissingElement, what)
}

// Transport wraps a failed remote operation.
func Transport(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}

// IsMissingElement reports whether err is a missing-element failure.
func IsMissingElement(err error) bool {
	return errors.Is(err, ErrMissingElement)
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// Classify maps an error to its failure kind.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrMissingElement):
		return KindMissingElement
	case errors.Is(err, ErrTransport):
		return KindTransport
	default:
		return KindFatal
	}
}
