// Package backend builds the data source selected by configuration.
package backend

import (
	"context"
	"time"

	"moneyflow/internal/ports"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// ReadyFunc reports whether the backend can serve requests.
type ReadyFunc func(ctx context.Context) error

// Result is a ready-to-use backend.
type Result struct {
	Source ports.Source
	// Committer is nil for backends that materialize recurring expenses
	// on their own.
	Committer ports.RecurringCommitter
	Ready     ReadyFunc
	Cleanup   CleanupFunc
}

// Close runs Cleanup when present.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// Memory
	DataDirectory string

	// SQLite
	SQLiteDBPath string

	// REST
	APIBaseURL    string
	APITimeout    time.Duration
	APIMaxRetries int
}

// Type names a data source.
type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
	RESTBackend   Type = "rest"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, RESTBackend:
		return true
	default:
		return false
	}
}
