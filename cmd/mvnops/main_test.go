package main

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/mvnops/cmd/mvnops/commands"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, exitCode(fmt.Errorf("plain")))
	assert.Equal(t, 3, exitCode(fmt.Errorf("wrapped: %w", &commands.BuildFailure{Code: 3, Err: fmt.Errorf("boom")})))
}

func TestReportError(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	code := reportError(&out, fmt.Errorf("load config: %w", errors.New("yaml: line 3: mapping values are not allowed here")))
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Error: ")
	assert.Contains(t, out.String(), "Invalid YAML format")

	out.Reset()
	code = reportError(&out, &commands.BuildFailure{Code: 4, Err: fmt.Errorf("boom")})
	assert.Equal(t, 4, code)
	assert.Contains(t, out.String(), "Error: ")
}

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	root := newRootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"init", "exec", "install", "deploy", "describe", "history", "doctor", "completion"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommand_InitThroughFlags(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.yaml")
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--config", path, "--no-color", "init"})

	require.NoError(t, root.Execute())
	assert.FileExists(t, path)
}
