package invoker

import (
	"fmt"
	"io"
	"sync"
)

// OutputHandler receives one line of Maven output at a time, without the
// trailing newline.
type OutputHandler interface {
	Consume(line string)
}

// HandlerFunc adapts a function to OutputHandler.
type HandlerFunc func(line string)

func (f HandlerFunc) Consume(line string) { f(line) }

// Discard drops every line.
var Discard OutputHandler = HandlerFunc(func(string) {})

// NewWriterHandler writes each line to w followed by a newline.
func NewWriterHandler(w io.Writer) OutputHandler {
	var mu sync.Mutex
	return HandlerFunc(func(line string) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintln(w, line)
	})
}

// CaptureHandler keeps every line in memory.
type CaptureHandler struct {
	mu    sync.Mutex
	lines []string
}

func NewCaptureHandler() *CaptureHandler {
	return &CaptureHandler{}
}

func (c *CaptureHandler) Consume(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
}

// Lines returns a copy of everything captured so far.
func (c *CaptureHandler) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}
