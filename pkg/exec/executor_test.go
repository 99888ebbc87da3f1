package exec

import (
	"context"
	"errors"
	osexec "os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealCommandExecutor_Execute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		script     string
		wantStdout string
		wantStderr string
		wantCode   int
	}{
		{"version banner", `echo "Apache Maven 3.9.6"`, "Apache Maven 3.9.6\n", "", 0},
		{"split streams", `echo out; echo warn >&2`, "out\n", "warn\n", 0},
		{"non-zero exit", `echo "JAVA_HOME is not defined" >&2; exit 1`, "", "JAVA_HOME is not defined\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stdout, stderr, err := (&RealCommandExecutor{}).Execute(context.Background(), "sh", "-c", tt.script)
			assert.Equal(t, tt.wantStdout, string(stdout))
			assert.Equal(t, tt.wantStderr, string(stderr))

			if tt.wantCode == 0 {
				require.NoError(t, err)
				return
			}
			var exitErr *osexec.ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, tt.wantCode, exitErr.ExitCode())
		})
	}
}

func TestRealCommandExecutor_NotFound(t *testing.T) {
	t.Parallel()

	_, _, err := DefaultExecutor().Execute(context.Background(), "mvn-does-not-exist-xyz")
	assert.ErrorIs(t, err, osexec.ErrNotFound)
}

func TestRealCommandExecutor_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := DefaultExecutor().Execute(ctx, "sleep", "10")
	assert.Error(t, err)
}

func TestRealCommandExecutor_Env(t *testing.T) {
	t.Parallel()

	executor := &RealCommandExecutor{Env: []string{"JAVA_HOME=/opt/jdk-21"}}
	stdout, _, err := executor.Execute(context.Background(), "sh", "-c", "echo $JAVA_HOME")
	require.NoError(t, err)
	assert.Equal(t, "/opt/jdk-21\n", string(stdout))
}

func TestExecutorFunc(t *testing.T) {
	t.Parallel()

	var gotName string
	var gotArgs []string
	f := ExecutorFunc(func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		gotName, gotArgs = name, args
		return nil, []byte("boom"), errors.New("exit status 1")
	})

	_, stderr, err := f.Execute(context.Background(), "mvn", "--batch-mode", "--version")
	require.Error(t, err)
	assert.Equal(t, "mvn", gotName)
	assert.Equal(t, []string{"--batch-mode", "--version"}, gotArgs)
	assert.Equal(t, "boom", string(stderr))
}
