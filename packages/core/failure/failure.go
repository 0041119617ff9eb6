package failure

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Kind is the classification of a failure.
type Kind int

const (
	KindNone Kind = iota
	KindPending
	KindAssertion
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPending:
		return "pending"
	case KindAssertion:
		return "assertion"
	default:
		return "error"
	}
}

// ZeroAssertions is the pending reason used for examples that never
// accessed the assertion handle.
const ZeroAssertions = "zero assertions"

// ErrDoneTwice is raised by a completion signal used after its block
// already resolved.
var ErrDoneTwice = errors.New("done() invoked twice")

// PendingError marks an example as not implemented yet.
type PendingError struct {
	Reason string
}

func (e *PendingError) Error() string {
	if e.Reason == "" {
		return "pending"
	}
	return "pending: " + e.Reason
}

// Pending returns a PendingError with the given reason.
func Pending(reason string) error {
	return &PendingError{Reason: reason}
}

// AssertionError is a failed check. Expected and Actual are optional and
// only rendered when set.
type AssertionError struct {
	Message  string
	Expected any
	Actual   any
}

func (e *AssertionError) Error() string {
	return e.Message
}

// HasValues reports whether expected/actual values were recorded.
func (e *AssertionError) HasValues() bool {
	return e.Expected != nil || e.Actual != nil
}

// Assertion returns an AssertionError with the given message.
func Assertion(format string, args ...any) error {
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}

// CountMismatch reports an expected assertion count that was not met.
func CountMismatch(expected, actual int) error {
	return &AssertionError{
		Message:  fmt.Sprintf("Expected %d assertions but got %d", expected, actual),
		Expected: expected,
		Actual:   actual,
	}
}

// MultiError aggregates the failures of several after hooks.
type MultiError struct {
	Errors []error
}

func (e *MultiError) Error() string {
	var sb strings.Builder
	sb.WriteString("Multiple failures in after hooks")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  %d) %s", i+1, err.Error())
	}
	return sb.String()
}

func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// TimeoutError is raised when an asynchronous block does not signal
// completion before its deadline.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("did not complete within %s", e.Timeout)
}

// PanicError wraps a recovered panic value that was not itself an error.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// KindOf classifies err. A MultiError is always KindError even when it
// wraps assertion failures.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var multi *MultiError
	if errors.As(err, &multi) {
		return KindError
	}

	var pending *PendingError
	if errors.As(err, &pending) {
		return KindPending
	}

	var assertion *AssertionError
	if errors.As(err, &assertion) {
		return KindAssertion
	}

	return KindError
}

// IsPending reports whether err is a pending-kind failure.
func IsPending(err error) bool {
	return KindOf(err) == KindPending
}

// IsAssertion reports whether err is an assertion-kind failure.
func IsAssertion(err error) bool {
	return KindOf(err) == KindAssertion
}

// FromPanic converts a recovered value into an error. Error values are
// returned unchanged so pending and assertion failures keep their kind.
func FromPanic(v any) error {
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok {
		return err
	}
	return &PanicError{Value: v, Stack: debug.Stack()}
}
