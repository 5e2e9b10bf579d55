package backend

import (
	"errors"
	"fmt"

	"moneyflow/internal/config"
)

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	t := Type(appConfig.DataSource)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid data source in config: %s", appConfig.DataSource)
	}

	return Config{
		Type:          t,
		DataDirectory: appConfig.DataDir,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		APIBaseURL:    appConfig.APIBaseURL,
		APITimeout:    appConfig.APITimeout,
		APIMaxRetries: appConfig.APIMaxRetries,
	}, nil
}

// Validate checks the settings the selected backend needs.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case RESTBackend:
		if c.APIBaseURL == "" {
			return errors.New("API base URL is required for rest backend")
		}
		if c.APIMaxRetries < 0 {
			return fmt.Errorf("invalid API max retries %d", c.APIMaxRetries)
		}
	case MemoryBackend:
		// an empty directory falls back to "data"
	}

	return nil
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{MemoryBackend, SQLiteBackend, RESTBackend}
}

// TypeStrings returns all valid backend type names.
func TypeStrings() []string {
	types := Types()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
