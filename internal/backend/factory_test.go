package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"moneyflow/internal/config"
	"moneyflow/internal/core"
	"moneyflow/internal/log"
)

func testFactory() Factory {
	return NewFactory(log.New(log.Config{Output: io.Discard}))
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataSource: "sheets"}); err == nil {
		t.Fatal("expected error for unknown data source")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataSource:    config.SourceREST,
		APIBaseURL:    "http://api.local/api",
		APITimeout:    time.Second,
		APIMaxRetries: 2,
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != RESTBackend || cfg.APIBaseURL != "http://api.local/api" || cfg.APIMaxRetries != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "memory", cfg: Config{Type: MemoryBackend}},
		{name: "unknown", cfg: Config{Type: "csv"}, wantErr: "invalid backend type"},
		{name: "sqlite without path", cfg: Config{Type: SQLiteBackend}, wantErr: "SQLite database path"},
		{name: "rest without url", cfg: Config{Type: RESTBackend}, wantErr: "API base URL"},
		{name: "rest negative retries", cfg: Config{Type: RESTBackend, APIBaseURL: "http://x", APIMaxRetries: -1}, wantErr: "max retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestTypeStrings(t *testing.T) {
	got := strings.Join(TypeStrings(), ",")
	if got != "memory,sqlite,rest" {
		t.Errorf("TypeStrings() = %s", got)
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	dir := t.TempDir()
	categories := `[{"id":"food","name":"Food","type":"expense"}]`
	if err := os.WriteFile(filepath.Join(dir, "categories.json"), []byte(categories), 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := testFactory().CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Close()

	if res.Committer == nil {
		t.Error("memory backend must commit recurring expenses")
	}
	cats, err := res.Source.ListCategories(context.Background())
	if err != nil || len(cats) != 1 || cats[0].Type != core.CategoryExpense {
		t.Errorf("categories = %+v, %v", cats, err)
	}
}

func TestCreateBackend_MemoryBadFixture(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "transactions.json"), []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := testFactory().CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir}); err == nil {
		t.Fatal("expected error for malformed fixture")
	}
}

func TestCreateBackend_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db", "moneyflow.db")
	res, err := testFactory().CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: dbPath})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Close()

	if res.Committer == nil || res.Ready == nil {
		t.Fatalf("result = %+v", res)
	}
	if err := res.Ready(context.Background()); err != nil {
		t.Errorf("Ready() error = %v", err)
	}
}

func TestCreateBackend_REST(t *testing.T) {
	status := http.StatusOK
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/categories" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte("[]"))
	}))
	defer ts.Close()

	res, err := testFactory().CreateBackend(context.Background(), Config{
		Type:       RESTBackend,
		APIBaseURL: ts.URL + "/api",
		APITimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if res.Committer != nil {
		t.Error("rest backend must not commit recurring expenses locally")
	}
	if err := res.Ready(context.Background()); err != nil {
		t.Errorf("Ready() error = %v", err)
	}

	status = http.StatusBadRequest
	if err := res.Ready(context.Background()); err == nil {
		t.Error("Ready() must fail when the backend rejects requests")
	}
	if err := res.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
