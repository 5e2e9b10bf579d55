package main

import (
	"bytes"
	"strings"
	"testing"

	"moneyflow/internal/core"
	"moneyflow/internal/dashboard"
	apphttp "moneyflow/internal/http"
)

func TestSummaryCmdQuery(t *testing.T) {
	tests := []struct {
		name string
		cmd  summaryCmd
		want string
	}{
		{name: "empty", cmd: summaryCmd{}, want: ""},
		{name: "days", cmd: summaryCmd{Days: 7}, want: "days=7"},
		{name: "range", cmd: summaryCmd{Start: "2024-03-01", End: "2024-03-10"}, want: "end=2024-03-10&start=2024-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.query().Encode(); got != tt.want {
				t.Errorf("query() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintSummary(t *testing.T) {
	categories := []core.Category{{ID: "food", Name: "Food", Type: core.CategoryExpense}}
	txs := []core.Transaction{
		{ID: "t1", Amount: 100, Currency: "EUR", CategoryID: "food", Date: "2024-02-10"},
		{ID: "t2", Amount: 250, Currency: "EUR", CategoryID: "food", Date: "2024-03-05"},
	}
	period := core.Period{Start: "2024-03-01", End: "2024-03-31"}
	resp := apphttp.NewSummaryResponse(dashboard.Summarize(txs, categories, period), "RUB")

	var out bytes.Buffer
	if err := printSummary(&out, resp); err != nil {
		t.Fatalf("printSummary() error = %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Period", "2024-03-01 .. 2024-03-31",
		"Expenses", "(1)",
		"Month delta", "(2024-03 vs 2024-02)",
		"Top categories", "Food",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Currencies") {
		t.Errorf("single currency period must not list currencies:\n%s", got)
	}
}
