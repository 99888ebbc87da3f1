// Package testutil provides shared helpers for mvnops tests: a fake mvn
// script, a configuration builder, an in-memory logger and a scripted
// command executor.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/systmms/mvnops/pkg/exec"
)

var _ exec.CommandExecutor = (*MockCommandExecutor)(nil)

// MockCommandExecutor answers commands from a table of canned responses.
type MockCommandExecutor struct {
	mu sync.Mutex

	// Responses maps "command arg1 arg2" prefixes to responses.
	Responses map[string]MockResponse

	// DefaultResponse is used when no pattern matches.
	DefaultResponse *MockResponse

	RecordedCalls []RecordedCall

	// StrictMode fails commands that match no pattern.
	StrictMode bool
}

type MockResponse struct {
	Stdout []byte
	Stderr []byte
	Err    error
}

type RecordedCall struct {
	Command string
	Args    []string
}

func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{Responses: make(map[string]MockResponse)}
}

func (m *MockCommandExecutor) Execute(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RecordedCalls = append(m.RecordedCalls, RecordedCall{Command: name, Args: append([]string(nil), args...)})

	key := strings.TrimSpace(name + " " + strings.Join(args, " "))
	if resp, ok := m.Responses[key]; ok {
		return resp.Stdout, resp.Stderr, resp.Err
	}

	// Longest prefix wins so more specific patterns take precedence.
	best := ""
	for pattern := range m.Responses {
		if strings.HasPrefix(key, pattern) && len(pattern) > len(best) {
			best = pattern
		}
	}
	if best != "" {
		resp := m.Responses[best]
		return resp.Stdout, resp.Stderr, resp.Err
	}

	if m.DefaultResponse != nil {
		return m.DefaultResponse.Stdout, m.DefaultResponse.Stderr, m.DefaultResponse.Err
	}
	if m.StrictMode {
		return nil, nil, fmt.Errorf("mock: no response configured for command: %s", key)
	}
	return []byte{}, []byte{}, nil
}

// AddResponse registers a response for a command prefix.
func (m *MockCommandExecutor) AddResponse(pattern string, response MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[pattern] = response
}

// AddErrorResponse registers a failing command with the given stderr.
func (m *MockCommandExecutor) AddErrorResponse(pattern, stderr string, exitCode int) {
	m.AddResponse(pattern, MockResponse{
		Stderr: []byte(stderr),
		Err:    fmt.Errorf("exit status %d", exitCode),
	})
}

// CallCount returns how many commands ran.
func (m *MockCommandExecutor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RecordedCalls)
}
