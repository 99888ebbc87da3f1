package invoker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Logger is the subset of logging used by the runner.
type Logger interface {
	Debug(format string, args ...interface{})
	Warn(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}

// Runner spawns Maven for a request and streams its output.
type Runner struct {
	logger   Logger
	stdout   OutputHandler
	stderr   OutputHandler
	timeout  time.Duration
	lookPath func(string) (string, error)
	environ  func() []string
	goos     string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

func WithLogger(l Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithOutput replaces the default handlers, which mirror Maven's output to
// the process's own stdout and stderr. A nil handler discards.
func WithOutput(stdout, stderr OutputHandler) RunnerOption {
	return func(r *Runner) {
		r.stdout = orDiscard(stdout)
		r.stderr = orDiscard(stderr)
	}
}

// WithTimeout applies when a request does not set its own timeout.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) { r.timeout = d }
}

// WithLookPath replaces exec.LookPath, mainly for tests.
func WithLookPath(fn func(string) (string, error)) RunnerOption {
	return func(r *Runner) { r.lookPath = fn }
}

// WithEnviron replaces os.Environ as the inherited environment.
func WithEnviron(fn func() []string) RunnerOption {
	return func(r *Runner) { r.environ = fn }
}

func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		logger:   nopLogger{},
		stdout:   NewWriterHandler(os.Stdout),
		stderr:   NewWriterHandler(os.Stderr),
		lookPath: exec.LookPath,
		environ:  os.Environ,
		goos:     runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func orDiscard(h OutputHandler) OutputHandler {
	if h == nil {
		return Discard
	}
	return h
}

// Run executes req and blocks until Maven exits and both output streams
// are drained. The returned error covers problems with the request itself;
// everything that happens once execution is attempted is reported in
// Result.Err.
func (r *Runner) Run(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}
	req, dir, err := r.prepare(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := &Result{ExitCode: -1}

	exe, err := r.resolveExecutable(req, dir)
	if err != nil {
		result.Err = err
		return result, nil
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	args := req.Args()
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Dir = dir
	cmd.Env = req.Environ(r.environ())
	configureProcessGroup(cmd)

	r.logger.Debug("Executing %s %s", exe, strings.Join(args, " "))
	r.logger.Debug("Working directory: %s", dir)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		result.Err = &LaunchError{Path: exe, Err: err}
		return result, nil
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		result.Err = &LaunchError{Path: exe, Err: err}
		return result, nil
	}

	if err := cmd.Start(); err != nil {
		result.Duration = time.Since(start)
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			result.Err = &ExecutableNotFoundError{Path: exe, Err: err}
		} else {
			result.Err = &LaunchError{Path: exe, Err: err}
		}
		return result, nil
	}

	var g errgroup.Group
	g.Go(func() error { return drain(stdout, r.stdout) })
	g.Go(func() error { return drain(stderr, r.stderr) })
	drainErr := g.Wait()

	waitErr := cmd.Wait()
	result.Duration = time.Since(start)

	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	classify(result, exe, timeout, waitErr, ctx.Err(), drainErr)

	if result.Err != nil {
		r.logger.Debug("Maven finished in %s: %v", result.Duration, result.Err)
	} else {
		r.logger.Debug("Maven finished in %s with exit code %d", result.Duration, result.ExitCode)
	}
	return result, nil
}

// classify sets result.Err from how the process ended. A context that
// expired after Maven already exited cleanly does not turn the run into a
// timeout.
func classify(result *Result, exe string, timeout time.Duration, waitErr, ctxErr, drainErr error) {
	switch {
	case waitErr != nil && errors.Is(ctxErr, context.DeadlineExceeded):
		result.ExitCode = -1
		result.Err = &TimeoutError{After: timeout}
	case waitErr != nil && ctxErr != nil:
		result.ExitCode = -1
		result.Err = &LaunchError{Path: exe, Err: ctxErr}
	case waitErr != nil:
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && exitErr.ExitCode() >= 0 {
			result.ExitCode = exitErr.ExitCode()
			result.Err = &ExitError{Code: result.ExitCode}
		} else {
			result.Err = &LaunchError{Path: exe, Err: waitErr}
		}
	case drainErr != nil:
		result.Err = &LaunchError{Path: exe, Err: drainErr}
	}
}

// prepare resolves the working directory. A base directory that names a
// file runs in the file's parent with -f pointing at it.
func (r *Runner) prepare(req *Request) (*Request, string, error) {
	base := strings.TrimSpace(req.BaseDirectory)
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("%w: cannot determine working directory: %v", ErrInvalidRequest, err)
		}
		return req, wd, nil
	}

	info, err := os.Stat(base)
	if err != nil {
		return nil, "", fmt.Errorf("%w: base directory %s: %v", ErrInvalidRequest, base, err)
	}
	if info.IsDir() {
		return req, base, nil
	}

	c := req.Clone()
	c.PomFile = filepath.Base(base)
	return c, filepath.Dir(base), nil
}

// Executable reports the Maven executable Run would start for req.
func (r *Runner) Executable(req *Request) (string, error) {
	if req == nil {
		return "", fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}
	req, dir, err := r.prepare(req)
	if err != nil {
		return "", err
	}
	return r.resolveExecutable(req, dir)
}

func (r *Runner) executableName() string {
	if r.goos == "windows" {
		return "mvn.cmd"
	}
	return "mvn"
}

// resolveExecutable picks, in order: the explicit executable, the
// executable under maven_home/bin, and mvn on PATH.
func (r *Runner) resolveExecutable(req *Request, dir string) (string, error) {
	if exe := req.MavenExecutable; exe != "" {
		switch {
		case filepath.IsAbs(exe):
			return checkExecutable(exe)
		case req.MavenHome != "":
			return checkExecutable(filepath.Join(req.MavenHome, "bin", exe))
		case strings.ContainsRune(exe, filepath.Separator) || strings.ContainsRune(exe, '/'):
			return checkExecutable(filepath.Join(dir, exe))
		}
		return r.look(exe)
	}
	if req.MavenHome != "" {
		return checkExecutable(filepath.Join(req.MavenHome, "bin", r.executableName()))
	}
	return r.look(r.executableName())
}

func (r *Runner) look(name string) (string, error) {
	path, err := r.lookPath(name)
	if err != nil {
		return "", &ExecutableNotFoundError{Path: name, Err: err}
	}
	return path, nil
}

func checkExecutable(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &ExecutableNotFoundError{Path: path, Err: err}
	}
	if info.IsDir() {
		return "", &ExecutableNotFoundError{Path: path, Err: errors.New("is a directory")}
	}
	return path, nil
}

// drain forwards complete lines to h until EOF. Lines are not length limited.
func drain(rd io.Reader, h OutputHandler) error {
	br := bufio.NewReader(rd)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			h.Consume(strings.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
}
