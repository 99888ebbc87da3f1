package testutil

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/mvnops/internal/logging"
)

// LogBuffer is a logging.Logger whose output is kept in memory.
type LogBuffer struct {
	*logging.Logger
	buf *syncBuffer
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

// NewTestLogger returns an uncoloured logger with debug output enabled.
func NewTestLogger(t *testing.T) *LogBuffer {
	t.Helper()
	buf := &syncBuffer{}
	return &LogBuffer{Logger: logging.NewWithWriter(true, true, buf), buf: buf}
}

// GetOutput returns everything logged so far.
func (l *LogBuffer) GetOutput() string {
	return l.buf.String()
}

// AssertContains asserts that the log output contains substr.
func (l *LogBuffer) AssertContains(t *testing.T, substr string) {
	t.Helper()
	assert.Contains(t, l.GetOutput(), substr, "Expected log output to contain %q", substr)
}

// AssertNotContains asserts that the log output does not contain substr.
func (l *LogBuffer) AssertNotContains(t *testing.T, substr string) {
	t.Helper()
	assert.NotContains(t, l.GetOutput(), substr, "Expected log output to NOT contain %q", substr)
}

// Lines returns the non-empty log lines.
func (l *LogBuffer) Lines() []string {
	var out []string
	for _, line := range strings.Split(l.GetOutput(), "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
