// Package history keeps a record of Maven invocations.
package history

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/systmms/mvnops/internal/config"
	"github.com/systmms/mvnops/pkg/invoker"
)

// Backend names accepted in history.backend.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
	BackendNone     = "none"
)

const DefaultTable = "mvnops_history"

// Entry is one recorded invocation.
type Entry struct {
	ID         string        `json:"id" yaml:"id"`
	Operation  string        `json:"operation" yaml:"operation"`
	Coordinate string        `json:"coordinate,omitempty" yaml:"coordinate,omitempty"`
	Goals      []string      `json:"goals,omitempty" yaml:"goals,omitempty"`
	BaseDir    string        `json:"base_dir,omitempty" yaml:"base_dir,omitempty"`
	ExitCode   int           `json:"exit_code" yaml:"exit_code"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at" yaml:"started_at"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// NewEntry starts an entry with a fresh id.
func NewEntry(operation string, started time.Time) Entry {
	return Entry{ID: uuid.NewString(), Operation: operation, StartedAt: started.UTC()}
}

// Complete copies the outcome of res into the entry.
func (e Entry) Complete(res *invoker.Result) Entry {
	if res == nil {
		return e
	}
	e.ExitCode = res.ExitCode
	e.Duration = res.Duration
	if res.Err != nil {
		e.Error = res.Err.Error()
	}
	return e
}

// Store persists entries. List returns the newest entries first.
type Store interface {
	Record(ctx context.Context, e Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// DefaultDir returns $XDG_DATA_HOME/mvnops/history, falling back to
// ~/.local/share when XDG_DATA_HOME is unset.
func DefaultDir(home string, lookupEnv func(string) (string, bool)) string {
	if lookupEnv != nil {
		if dir, ok := lookupEnv("XDG_DATA_HOME"); ok && dir != "" {
			return filepath.Join(dir, "mvnops", "history")
		}
	}
	return filepath.Join(home, ".local", "share", "mvnops", "history")
}

// Open returns the store selected by cfg. SQL stores create their table
// if it does not exist.
func Open(ctx context.Context, cfg config.HistoryConfig, defaultDir string) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		dir := cfg.Dir
		if dir == "" {
			dir = defaultDir
		}
		return NewFileStore(dir), nil
	case BackendPostgres, BackendMySQL:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("history backend %s requires dsn", cfg.Backend)
		}
		return OpenSQL(ctx, cfg.Backend, cfg.DSN, cfg.Table)
	case BackendNone:
		return Nop{}, nil
	}
	return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error        { return nil }
func (Nop) List(context.Context, int) ([]Entry, error) { return nil, nil }
func (Nop) Close() error                               { return nil }
