package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"moneyflow/internal/core"
	"moneyflow/internal/log"
)

const testSpreadsheet = "sheet-1"

// fakeSheets serves the handful of Sheets v4 endpoints the client uses
// over an in-memory grid.
type fakeSheets struct {
	mu       sync.Mutex
	rows     [][]any
	sheetID  int64
	metaHits int
	deleted  []int64
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	base := "/v4/spreadsheets/" + testSpreadsheet
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == base:
		f.metaHits++
		writeJSON(w, map[string]any{"sheets": []any{
			map[string]any{"properties": map[string]any{"sheetId": 3, "title": "Other"}},
			map[string]any{"properties": map[string]any{"sheetId": f.sheetID, "title": DefaultSheetName}},
		}})
	case r.Method == http.MethodPost && path == base+":batchUpdate":
		var req gsheet.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, rq := range req.Requests {
			i := rq.DeleteDimension.Range.StartIndex
			f.deleted = append(f.deleted, i)
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
		}
		writeJSON(w, map[string]any{})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, vr.Values...)
		writeJSON(w, map[string]any{})
	case r.Method == http.MethodPut && strings.HasPrefix(path, base+"/values/"):
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(f.rows) == 0 {
			f.rows = append(f.rows, nil)
		}
		f.rows[0] = vr.Values[0]
		writeJSON(w, map[string]any{})
	case r.Method == http.MethodGet && strings.HasSuffix(path, "!A1:F1"):
		if len(f.rows) == 0 {
			writeJSON(w, map[string]any{})
			return
		}
		writeJSON(w, map[string]any{"values": f.rows[:1]})
	case r.Method == http.MethodGet && strings.HasPrefix(path, base+"/values/"):
		writeJSON(w, map[string]any{"values": f.rows})
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)
	c, err := New(context.Background(), Config{
		SpreadsheetID: testSpreadsheet,
		Options: []goption.ClientOption{
			goption.WithEndpoint(ts.URL + "/"),
			goption.WithoutAuthentication(),
		},
	}, log.New(log.Config{Output: io.Discard}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	if err == nil || err.Error() != "missing spreadsheet id" {
		t.Fatalf("err = %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "x"}, nil)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("err = %v", err)
	}
}

func TestNew_UnreadableKeyFile(t *testing.T) {
	_, err := New(context.Background(), Config{
		SpreadsheetID:      "x",
		ServiceAccountFile: filepath.Join(t.TempDir(), "missing.json"),
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("err = %v", err)
	}
}

func TestCredentialOptions(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(keyFile, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     Config
		wantLen int
	}{
		{name: "none", cfg: Config{}, wantLen: 0},
		{name: "inline json", cfg: Config{ServiceAccountJSON: `{"type":"service_account"}`}, wantLen: 2},
		{name: "key file", cfg: Config{ServiceAccountFile: keyFile}, wantLen: 2},
		{name: "blank json falls through to file", cfg: Config{ServiceAccountJSON: "  ", ServiceAccountFile: keyFile}, wantLen: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := credentialOptions(tt.cfg)
			if err != nil {
				t.Fatalf("credentialOptions() error: %v", err)
			}
			if len(opts) != tt.wantLen {
				t.Errorf("len(opts) = %d, want %d", len(opts), tt.wantLen)
			}
		})
	}
}

func TestEnsureHeader(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	if err := c.EnsureHeader(context.Background()); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if len(fake.rows) != 1 || len(fake.rows[0]) != len(Header) || fake.rows[0][5] != "ID" {
		t.Fatalf("rows = %v", fake.rows)
	}

	// A second call must not touch an existing header.
	fake.rows[0][0] = "Дата"
	if err := c.EnsureHeader(context.Background()); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if fake.rows[0][0] != "Дата" {
		t.Errorf("header overwritten: %v", fake.rows[0])
	}
}

func TestUpsertTransaction_AppendsNewRow(t *testing.T) {
	fake := &fakeSheets{rows: [][]any{Header}}
	c := newTestClient(t, fake)

	tx := core.Transaction{ID: "t1", Amount: 1250.5, Currency: "RUB", Date: "2024-03-02", Note: "обед"}
	if err := c.UpsertTransaction(context.Background(), tx, "Еда"); err != nil {
		t.Fatalf("UpsertTransaction: %v", err)
	}
	if len(fake.rows) != 2 {
		t.Fatalf("rows = %v", fake.rows)
	}
	got := toStrings(fake.rows[1])
	want := []string{"2024-03-02", "Еда", "1250.5", "RUB", "обед", "t1"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("col %d = %q, want %q", i, got[i], want[i])
		}
	}
	if fake.metaHits != 0 {
		t.Error("no rows to delete, spreadsheet metadata should not be read")
	}
}

func TestUpsertTransaction_ReplacesExistingRows(t *testing.T) {
	fake := &fakeSheets{
		sheetID: 7,
		rows: [][]any{
			Header,
			{"2024-03-01", "Еда", 100.0, "RUB", "", "t1"},
			{"2024-03-01", "Такси", 300.0, "RUB", "", "t2"},
			{"2024-03-01", "Еда", 100.0, "RUB", "", "t1"},
		},
	}
	c := newTestClient(t, fake)

	tx := core.Transaction{ID: "t1", Amount: 150, Currency: "RUB", Date: "2024-03-03"}
	if err := c.UpsertTransaction(context.Background(), tx, "Еда"); err != nil {
		t.Fatalf("UpsertTransaction: %v", err)
	}

	if len(fake.deleted) != 2 || fake.deleted[0] != 3 || fake.deleted[1] != 1 {
		t.Errorf("deleted = %v, want bottom-up [3 1]", fake.deleted)
	}
	rows := parseRows(fake.rows)
	if len(rows) != 2 || rows[0].ID != "t2" || rows[1].ID != "t1" || rows[1].Amount != 150 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestDeleteTransaction(t *testing.T) {
	fake := &fakeSheets{
		rows: [][]any{
			Header,
			{"2024-03-01", "Еда", 100.0, "RUB", "", "t1"},
			{"2024-03-01", "Такси", 300.0, "RUB", "", "t2"},
		},
	}
	c := newTestClient(t, fake)
	ctx := context.Background()

	if err := c.DeleteTransaction(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := c.DeleteTransaction(ctx, "missing"); err != nil {
		t.Fatalf("DeleteTransaction(missing): %v", err)
	}
	if err := c.DeleteTransaction(ctx, "t2"); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if len(fake.rows) != 1 {
		t.Errorf("rows = %v, want header only", fake.rows)
	}
	if fake.metaHits != 1 {
		t.Errorf("metadata fetched %d times, want 1 (cached)", fake.metaHits)
	}
}

func TestDeleteTransaction_UnknownSheet(t *testing.T) {
	fake := &fakeSheets{rows: [][]any{{"2024-03-01", "Еда", 1.0, "RUB", "", "t1"}}}
	c := newTestClient(t, fake)
	c.sheet = "Renamed"

	err := c.DeleteTransaction(context.Background(), "t1")
	if err == nil || !strings.Contains(err.Error(), `sheet "Renamed" not found`) {
		t.Fatalf("err = %v", err)
	}
}

func TestRows(t *testing.T) {
	fake := &fakeSheets{
		rows: [][]any{
			Header,
			{"2024-03-01", "Еда", 100.0, "RUB", "", "t1"},
			{},
			{"2024-03-02", "Такси", "1 200,50", "RUB", "ночью", "t2"},
		},
	}
	c := newTestClient(t, fake)

	rows, err := c.Rows(context.Background())
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[1].Index != 3 || rows[1].Amount != 1200.5 || rows[1].Note != "ночью" {
		t.Errorf("row = %+v", rows[1])
	}
}

func TestUpsertTransaction_RequiresID(t *testing.T) {
	c := newTestClient(t, &fakeSheets{})
	if err := c.UpsertTransaction(context.Background(), core.Transaction{Amount: 1}, "x"); err == nil {
		t.Fatal("expected error for transaction without id")
	}
}
