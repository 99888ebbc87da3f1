package invoker

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrExecutableNotFound = errors.New("maven executable not found")
	ErrLaunchFailed       = errors.New("maven launch failed")
	ErrNonZeroExit        = errors.New("maven exited with non-zero status")
	ErrTimeout            = errors.New("maven invocation timed out")
)

// Result describes a finished invocation. ExitCode is -1 when the process
// never produced one. Err is set for execution failures, including a
// non-zero exit.
type Result struct {
	ExitCode int
	Err      error
	Duration time.Duration
}

// Succeeded reports whether Maven ran and exited with status 0.
func (r *Result) Succeeded() bool {
	return r != nil && r.Err == nil && r.ExitCode == 0
}

// ExecutableNotFoundError names the path or command that could not be found.
type ExecutableNotFoundError struct {
	Path string
	Err  error
}

func (e *ExecutableNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("maven executable %q not found: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("maven executable %q not found", e.Path)
}

func (e *ExecutableNotFoundError) Unwrap() error { return ErrExecutableNotFound }

// ExitError records the status of a Maven process that exited non-zero.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("maven exited with status %d", e.Code)
}

func (e *ExitError) Unwrap() error { return ErrNonZeroExit }

// TimeoutError is set when the process was killed after the timeout elapsed.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("maven invocation killed after %s", e.After)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// LaunchError wraps failures to start or wait on the process.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to run %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() []error { return []error{ErrLaunchFailed, e.Err} }
