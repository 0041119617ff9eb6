package cmd

import (
	"errors"
	"fmt"
)

// Exit codes for itspec binaries
const (
	// ExitSuccess indicates every example passed or is pending
	ExitSuccess = 0

	// ExitTestFailure indicates one or more examples failed an assertion
	ExitTestFailure = 1

	// ExitTestError indicates one or more examples raised an error
	ExitTestError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// ExitError carries a process exit code out of a command. Err is nil when
// the run itself already reported what went wrong.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func configError(format string, args ...any) error {
	return &ExitError{Code: ExitConfigError, Err: fmt.Errorf(format, args...)}
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: ExitUsageError, Err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitTestFailure
}
