package suiterun

import (
	"errors"
	"fmt"

	"github.com/suiterun/suiterun/types"
)

// ErrAlreadyClosed is returned by Run when the orchestrator was closed
// before the run could start. Calling Run after Close is a programming
// error.
var ErrAlreadyClosed = errors.New("orchestrator is closed")

// NoTestsMatchedError is returned when a run completes without observing a
// single test outcome while a name pattern was configured.
type NoTestsMatchedError struct {
	Pattern *types.Pattern
}

func (e *NoTestsMatchedError) Error() string {
	if e.Pattern.IsRegexp() {
		return fmt.Sprintf("no tests matched the regular expression %q", e.Pattern)
	}
	return fmt.Sprintf("no tests matched %q", e.Pattern)
}

// IsNoTestsMatched checks if the error is or wraps a NoTestsMatchedError
func IsNoTestsMatched(err error) bool {
	var matchErr *NoTestsMatchedError
	return err != nil && errors.As(err, &matchErr)
}

// RuntimeError represents an operational error that should lead to exit code 2
// Examples include configuration errors, file not found, etc.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// TestFailureError represents a failure from test assertions (exit code 1)
type TestFailureError struct {
	Message string
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("test failure: %s", e.Message)
}

// NewTestFailureError creates a new TestFailureError
func NewTestFailureError(message string) *TestFailureError {
	return &TestFailureError{Message: message}
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) bool {
	var testErr *TestFailureError
	return err != nil && errors.As(err, &testErr)
}
