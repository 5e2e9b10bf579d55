package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"moneyflow/internal/core"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    core.Period
		wantErr bool
	}{
		{
			name:  "defaults to current month",
			query: url.Values{},
			want:  core.Period{Start: "2024-03-01", End: "2024-03-31"},
		},
		{
			name:  "last days window",
			query: url.Values{"days": {"7"}},
			want:  core.Period{Start: "2024-03-09", End: "2024-03-15"},
		},
		{
			name:  "days wins over bounds",
			query: url.Values{"days": {"1"}, "start": {"2020-01-01"}},
			want:  core.Period{Start: "2024-03-15", End: "2024-03-15"},
		},
		{
			name:  "start only keeps month end",
			query: url.Values{"start": {"2024-02-10"}},
			want:  core.Period{Start: "2024-02-10", End: "2024-03-31"},
		},
		{
			name:  "end only keeps month start",
			query: url.Values{"end": {"2024-03-10"}},
			want:  core.Period{Start: "2024-03-01", End: "2024-03-10"},
		},
		{
			name:  "inverted bounds are swapped",
			query: url.Values{"start": {"2024-03-20"}, "end": {"2024-03-05"}},
			want:  core.Period{Start: "2024-03-05", End: "2024-03-20"},
		},
		{
			name:  "unpadded date is normalized",
			query: url.Values{"start": {"2024-2-5"}, "end": {"2024-02-09"}},
			want:  core.Period{Start: "2024-02-05", End: "2024-02-09"},
		},
		{name: "zero days", query: url.Values{"days": {"0"}}, wantErr: true},
		{name: "too many days", query: url.Values{"days": {"367"}}, wantErr: true},
		{name: "oversized explicit span", query: url.Values{"start": {"2026-01-01"}, "end": {"99999999-12-31"}}, wantErr: true},
		{name: "oversized span from start only", query: url.Values{"start": {"1900-01-01"}}, wantErr: true},
		{
			name:  "ten year span",
			query: url.Values{"start": {"2014-03-18"}, "end": {"2024-03-15"}},
			want:  core.Period{Start: "2014-03-18", End: "2024-03-15"},
		},
		{name: "non numeric days", query: url.Values{"days": {"week"}}, wantErr: true},
		{name: "garbage start", query: url.Values{"start": {"yesterday"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePeriod(tt.query, fixedNow)
			if tt.wantErr {
				var reqErr *requestError
				if !errors.As(err, &reqErr) {
					t.Fatalf("ParsePeriod() error = %v, want request error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePeriod() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParsePeriod() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{name: "missing uses default", value: "", want: 6},
		{name: "explicit", value: "3", want: 3},
		{name: "zero allowed", value: "0", want: 0},
		{name: "capped", value: "500", want: 50},
		{name: "negative", value: "-1", wantErr: true},
		{name: "not a number", value: "many", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := url.Values{}
			if tt.value != "" {
				q.Set("limit", tt.value)
			}
			got, err := ParseLimit(q, "limit", 6, 50)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLimit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLimit() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		value   string
		want    string
		wantErr bool
	}{
		{value: "", want: "2024-03"},
		{value: "2023-12", want: "2023-12"},
		{value: "2024-1", want: "2024-01"},
		{value: "2024-13", wantErr: true},
		{value: "24-01", wantErr: true},
		{value: "march", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			q := url.Values{}
			if tt.value != "" {
				q.Set("month", tt.value)
			}
			got, err := ParseMonth(q, fixedNow)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMonth(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMonth(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantErr     string
	}{
		{name: "valid", body: `{"name":"Food","type":"expense"}`, contentType: "application/json"},
		{name: "no content type", body: `{"name":"Food"}`},
		{name: "empty body", body: "", contentType: "application/json", wantErr: "empty"},
		{name: "malformed", body: `{"name":`, contentType: "application/json", wantErr: "invalid JSON"},
		{name: "unknown field", body: `{"nom":"Food"}`, contentType: "application/json", wantErr: "invalid JSON"},
		{name: "form encoded", body: "name=Food", contentType: "application/x-www-form-urlencoded", wantErr: "Content-Type"},
		{name: "too large", body: `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, contentType: "application/json", wantErr: "too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			var c core.Category
			err := DecodeJSON(httptest.NewRecorder(), req, &c)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("DecodeJSON() unexpected error: %v", err)
				}
				if c.Name != "Food" {
					t.Errorf("Name = %q, want Food", c.Name)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("DecodeJSON() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Продукты  ", "Продукты"},
		{"line\x00break\x07", "linebreak"},
		{"keep\ttab", "keep\ttab"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.input); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCacheKey(t *testing.T) {
	p := core.Period{Start: "2024-03-01", End: "2024-03-31"}
	if got := cacheKey("daily", p); got != "daily|2024-03-01|2024-03-31" {
		t.Errorf("cacheKey() = %q", got)
	}
	if cacheKey("categories", p, 6) == cacheKey("categories", p, 5) {
		t.Error("limit must be part of the key")
	}
}
