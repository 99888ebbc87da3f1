package invoker

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeMaven = `#!/bin/sh
echo "args: $*"
echo "cwd: $(pwd)"
echo "opts: $MAVEN_OPTS"
echo "warning on stderr" >&2
printf "no newline"
if [ -n "$FAKE_SLEEP" ]; then sleep "$FAKE_SLEEP"; fi
exit ${FAKE_EXIT:-0}
`

// chattyMaven writes 25000 lines of 64 bytes to each stream, well past
// any pipe buffer, before exiting.
const chattyMaven = `#!/bin/sh
i=0
while [ $i -lt 25000 ]; do
  echo "[INFO] stdout line $i ............................................"
  echo "[WARNING] stderr line $i ........................................." >&2
  i=$((i+1))
done
`

// writeFakeMaven installs the default fake as <home>/bin/mvn.
func writeFakeMaven(t *testing.T) string {
	t.Helper()
	return writeMavenScript(t, fakeMaven)
}

// writeMavenScript installs script as <home>/bin/mvn.
func writeMavenScript(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake maven requires a POSIX shell")
	}
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, "bin", "mvn"), []byte(script), 0o755))
	return home
}

func newTestRequest(t *testing.T, home string) *Request {
	t.Helper()
	o := DefaultOptions(t.TempDir())
	o.MavenHome = home
	r, err := NewRequest(o)
	require.NoError(t, err)
	return r
}

func realPath(t *testing.T, p string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(p)
	require.NoError(t, err)
	return resolved
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	home := writeFakeMaven(t)
	base := t.TempDir()
	out := NewCaptureHandler()
	errOut := NewCaptureHandler()

	req := newTestRequest(t, home).WithBaseDirectory(base).WithGoals("clean", "install")
	req.MavenOpts = "-Xmx512m"

	res, err := NewRunner(WithOutput(out, errOut)).Run(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, 0, res.ExitCode)
	assert.Greater(t, res.Duration, time.Duration(0))

	lines := out.Lines()
	require.Len(t, lines, 4)
	assert.True(t, strings.HasSuffix(lines[0], "-T 1 clean install"), lines[0])
	assert.Equal(t, realPath(t, base), realPath(t, strings.TrimPrefix(lines[1], "cwd: ")))
	assert.Equal(t, "opts: -Xmx512m", lines[2])
	assert.Equal(t, "no newline", lines[3])
	assert.Equal(t, []string{"warning on stderr"}, errOut.Lines())
}

// Not parallel: swaps os.Stdout and os.Stderr.
func TestRun_DefaultOutputMirrorsProcessStreams(t *testing.T) {
	home := writeFakeMaven(t)

	outR, outW, err := os.Pipe()
	require.NoError(t, err)
	errR, errW, err := os.Pipe()
	require.NoError(t, err)

	stdout, stderr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = outW, errW
	r := NewRunner()
	os.Stdout, os.Stderr = stdout, stderr

	res, err := r.Run(context.Background(), newTestRequest(t, home).WithGoals("validate"))
	require.NoError(t, err)
	require.NoError(t, res.Err)
	require.NoError(t, outW.Close())
	require.NoError(t, errW.Close())

	gotOut, err := io.ReadAll(outR)
	require.NoError(t, err)
	gotErr, err := io.ReadAll(errR)
	require.NoError(t, err)

	assert.Contains(t, string(gotOut), "args: ")
	assert.Contains(t, string(gotOut), "no newline\n")
	assert.Equal(t, "warning on stderr\n", string(gotErr))
}

func TestRun_DrainsLargeOutputOnBothStreams(t *testing.T) {
	t.Parallel()

	home := writeMavenScript(t, chattyMaven)
	out := NewCaptureHandler()
	errOut := NewCaptureHandler()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := NewRunner(WithOutput(out, errOut)).Run(ctx, newTestRequest(t, home).WithGoals("verify"))
	require.NoError(t, err)
	require.NoError(t, res.Err)
	assert.Equal(t, 0, res.ExitCode)

	lines := out.Lines()
	require.Len(t, lines, 25000)
	assert.Equal(t, "[INFO] stdout line 24999 ............................................", lines[24999])
	assert.Len(t, errOut.Lines(), 25000)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		waitErr  error
		ctxErr   error
		drainErr error
		wantCode int
		wantErr  error
	}{
		{name: "clean exit", wantCode: 0},
		{name: "deadline after clean exit", ctxErr: context.DeadlineExceeded, wantCode: 0},
		{name: "killed by deadline", waitErr: errors.New("signal: killed"), ctxErr: context.DeadlineExceeded, wantCode: -1, wantErr: ErrTimeout},
		{name: "killed by cancel", waitErr: errors.New("signal: killed"), ctxErr: context.Canceled, wantCode: -1, wantErr: ErrLaunchFailed},
		{name: "wait failure", waitErr: errors.New("wait: broken"), wantCode: 0, wantErr: ErrLaunchFailed},
		{name: "drain failure", drainErr: errors.New("read: broken"), wantCode: 0, wantErr: ErrLaunchFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := &Result{ExitCode: 0}
			classify(res, "/opt/maven/bin/mvn", time.Second, tt.waitErr, tt.ctxErr, tt.drainErr)
			assert.Equal(t, tt.wantCode, res.ExitCode)
			if tt.wantErr == nil {
				assert.NoError(t, res.Err)
				return
			}
			assert.ErrorIs(t, res.Err, tt.wantErr)
		})
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	t.Parallel()

	home := writeFakeMaven(t)
	req := newTestRequest(t, home).WithGoals("verify").WithEnv("FAKE_EXIT", "3")

	res, err := NewRunner().Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.ErrorIs(t, res.Err, ErrNonZeroExit)

	var exitErr *ExitError
	require.ErrorAs(t, res.Err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.False(t, res.Succeeded())
}

func TestRun_Timeout(t *testing.T) {
	t.Parallel()

	home := writeFakeMaven(t)
	req := newTestRequest(t, home).WithGoals("verify").WithEnv("FAKE_SLEEP", "30")

	start := time.Now()
	res, err := NewRunner(WithTimeout(200*time.Millisecond)).Run(context.Background(), req)
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, ErrTimeout)
	assert.Equal(t, -1, res.ExitCode)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRun_RequestTimeoutWins(t *testing.T) {
	t.Parallel()

	home := writeFakeMaven(t)
	req := newTestRequest(t, home).WithGoals("verify").WithEnv("FAKE_SLEEP", "30")
	req.Timeout = 100 * time.Millisecond

	res, err := NewRunner(WithTimeout(time.Hour)).Run(context.Background(), req)
	require.NoError(t, err)

	var te *TimeoutError
	require.ErrorAs(t, res.Err, &te)
	assert.Equal(t, 100*time.Millisecond, te.After)
}

func TestRun_BaseDirectoryIsPomFile(t *testing.T) {
	t.Parallel()

	home := writeFakeMaven(t)
	dir := t.TempDir()
	pom := filepath.Join(dir, "custom-pom.xml")
	require.NoError(t, os.WriteFile(pom, []byte("<project/>"), 0o600))

	out := NewCaptureHandler()
	req := newTestRequest(t, home).WithBaseDirectory(pom).WithGoals("validate")

	res, err := NewRunner(WithOutput(out, nil)).Run(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, res.Err)

	lines := out.Lines()
	assert.True(t, strings.HasPrefix(lines[0], "args: -f custom-pom.xml "), lines[0])
	assert.Equal(t, realPath(t, dir), realPath(t, strings.TrimPrefix(lines[1], "cwd: ")))
	assert.Empty(t, req.PomFile, "caller's request must not be modified")
}

func TestRun_InvalidRequest(t *testing.T) {
	t.Parallel()

	r := NewRunner()

	_, err := r.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	req, nerr := NewRequest(DefaultOptions(t.TempDir()))
	require.NoError(t, nerr)
	req.BaseDirectory = filepath.Join(t.TempDir(), "does-not-exist")
	_, err = r.Run(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRun_ExecutableNotFound(t *testing.T) {
	t.Parallel()

	t.Run("missing maven home", func(t *testing.T) {
		t.Parallel()

		req := newTestRequest(t, filepath.Join(t.TempDir(), "no-maven"))
		res, err := NewRunner().Run(context.Background(), req)
		require.NoError(t, err)
		assert.ErrorIs(t, res.Err, ErrExecutableNotFound)
		assert.Equal(t, -1, res.ExitCode)
	})

	t.Run("not on path", func(t *testing.T) {
		t.Parallel()

		req := newTestRequest(t, "")
		lookPath := func(string) (string, error) { return "", errors.New("not found") }
		res, err := NewRunner(WithLookPath(lookPath)).Run(context.Background(), req)
		require.NoError(t, err)

		var nf *ExecutableNotFoundError
		require.ErrorAs(t, res.Err, &nf)
		assert.Equal(t, "mvn", nf.Path)
	})
}

func TestResolveExecutable(t *testing.T) {
	t.Parallel()

	home := writeFakeMaven(t)
	r := NewRunner(WithLookPath(func(name string) (string, error) { return "/usr/bin/" + name, nil }))

	got, err := r.resolveExecutable(&Request{MavenHome: home}, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "bin", "mvn"), got)

	got, err = r.resolveExecutable(&Request{MavenHome: home, MavenExecutable: "mvn"}, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "bin", "mvn"), got)

	explicit := filepath.Join(home, "bin", "mvn")
	got, err = r.resolveExecutable(&Request{MavenExecutable: explicit}, "")
	require.NoError(t, err)
	assert.Equal(t, explicit, got)

	got, err = r.resolveExecutable(&Request{}, "")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/mvn", got)

	got, err = r.resolveExecutable(&Request{MavenExecutable: "bin/mvn"}, home)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "bin", "mvn"), got)

	r.goos = "windows"
	got, err = r.resolveExecutable(&Request{}, "")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/mvn.cmd", got)
}

func TestHandlers(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	capture := NewCaptureHandler()
	w := NewWriterHandler(&sb)
	for _, line := range []string{"one", "two"} {
		w.Consume(line)
		capture.Consume(line)
	}
	Discard.Consume("ignored")

	assert.Equal(t, "one\ntwo\n", sb.String())
	assert.Equal(t, []string{"one", "two"}, capture.Lines())
}

func TestExecutable(t *testing.T) {
	t.Parallel()

	home := writeFakeMaven(t)
	r := NewRunner()

	got, err := r.Executable(newTestRequest(t, home))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "bin", "mvn"), got)

	_, err = r.Executable(newTestRequest(t, t.TempDir()))
	assert.ErrorIs(t, err, ErrExecutableNotFound)

	_, err = r.Executable(nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
