package backend

import (
	"context"
	"fmt"

	"moneyflow/internal/api"
	"moneyflow/internal/log"
	"moneyflow/internal/sources/memory"
	"moneyflow/internal/storage"
)

const defaultDataDirectory = "data"

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case RESTBackend:
		return f.createRESTBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &Result{
		Source:    repo,
		Committer: repo,
		Ready:     repo.Ping,
		Cleanup:   repo.Close,
	}, nil
}

func (f *DefaultFactory) createRESTBackend(ctx context.Context, config Config) (*Result, error) {
	client := api.NewClient(api.Config{
		BaseURL:    config.APIBaseURL,
		Timeout:    config.APITimeout,
		MaxRetries: config.APIMaxRetries,
	})

	f.logger.InfoContext(ctx, "Initialized REST backend",
		"base_url", config.APIBaseURL,
		"timeout", config.APITimeout,
		"max_retries", config.APIMaxRetries)

	return &Result{
		Source: client,
		Ready: func(ctx context.Context) error {
			_, err := client.ListCategories(ctx)
			return err
		},
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*Result, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = defaultDataDirectory
	}

	store, err := memory.NewFromDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory backend from %s: %w", dataDir, err)
	}

	f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", dataDir)

	return &Result{
		Source:    store,
		Committer: store,
	}, nil
}
