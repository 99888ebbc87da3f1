// Package exec runs short-lived helper commands, such as the Maven version
// check, behind an interface that tests can replace.
package exec

import (
	"bytes"
	"context"
	"os/exec"
)

// CommandExecutor runs a command to completion and returns its output.
type CommandExecutor interface {
	Execute(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// RealCommandExecutor runs commands with os/exec. A nil Env inherits the
// parent environment.
type RealCommandExecutor struct {
	Env []string
}

func (r *RealCommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = r.Env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// DefaultExecutor returns an executor that inherits the environment.
func DefaultExecutor() CommandExecutor {
	return &RealCommandExecutor{}
}

// ExecutorFunc adapts a function to CommandExecutor.
type ExecutorFunc func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)

func (f ExecutorFunc) Execute(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	return f(ctx, name, args...)
}
