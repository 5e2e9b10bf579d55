package http

import (
	"encoding/json"
	"net/http"

	"moneyflow/internal/core"
	"moneyflow/internal/dashboard"
	"moneyflow/internal/log"
)

const (
	maxCategoryLimit   = 50
	defaultLatestLimit = 10
	maxLatestLimit     = 100
)

// SummaryResponse is the summary plus display strings in Currency.
type SummaryResponse struct {
	dashboard.Summary
	Currency  string           `json:"currency"`
	Formatted FormattedSummary `json:"formatted"`
}

type FormattedSummary struct {
	ExpenseTotal string `json:"expenseTotal"`
	IncomeTotal  string `json:"incomeTotal"`
	Balance      string `json:"balance"`
	MonthDelta   string `json:"monthDelta"`
}

// respondCached serves the encoded payload under key, computing it from
// the current snapshot on a miss.
func (s *Server) respondCached(w http.ResponseWriter, r *http.Request, key string, compute func() any) {
	body, err := s.cache.GetOrCompute(key, func() ([]byte, error) {
		return json.Marshal(compute())
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to encode dashboard payload",
			log.FieldError, err,
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusInternalServerError, "failed to encode response").Write(w)
		return
	}
	NewJSONResponse().RawBody(body).Write(w)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriod(r.URL.Query(), s.now())
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	s.respondCached(w, r, cacheKey("daily", period), func() any {
		categories, txs := s.store.Snapshot()
		inPeriod := dashboard.FilterTransactionsByPeriod(txs, period.Start, period.End)
		expenses := dashboard.FilterExpenseTransactions(inPeriod, categories)
		return dashboard.GroupExpensesByDay(expenses, period.Start, period.End)
	})
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	period, err := ParsePeriod(query, s.now())
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	limit, err := ParseLimit(query, "limit", s.categoryLimit, maxCategoryLimit)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	s.respondCached(w, r, cacheKey("categories", period, limit), func() any {
		categories, txs := s.store.Snapshot()
		inPeriod := dashboard.FilterTransactionsByPeriod(txs, period.Start, period.End)
		expenses := dashboard.FilterExpenseTransactions(inPeriod, categories)
		return dashboard.GroupExpensesByCategory(expenses, categories, limit)
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriod(r.URL.Query(), s.now())
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	s.respondCached(w, r, cacheKey("summary", period), func() any {
		categories, txs := s.store.Snapshot()
		return NewSummaryResponse(dashboard.Summarize(txs, categories, period), s.defaultCurrency)
	})
}

// NewSummaryResponse formats totals in the period's only currency, or in
// defaultCurrency when the period mixes several or has none.
func NewSummaryResponse(summary dashboard.Summary, defaultCurrency string) SummaryResponse {
	currency := defaultCurrency
	if len(summary.Currencies) == 1 && summary.Currencies[0] != "" {
		currency = summary.Currencies[0]
	}
	return SummaryResponse{
		Summary:  summary,
		Currency: currency,
		Formatted: FormattedSummary{
			ExpenseTotal: core.FormatMoney(summary.ExpenseTotal, currency),
			IncomeTotal:  core.FormatMoney(summary.IncomeTotal, currency),
			Balance:      core.FormatMoney(summary.Balance, currency),
			MonthDelta:   core.FormatMoney(summary.Months.Delta(), currency),
		},
	}
}

func (s *Server) handleLatestTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	period, err := ParsePeriod(query, s.now())
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	limit, err := ParseLimit(query, "limit", defaultLatestLimit, maxLatestLimit)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	s.respondCached(w, r, cacheKey("latest", period, limit), func() any {
		txs := s.store.Transactions()
		inPeriod := dashboard.FilterTransactionsByPeriod(txs, period.Start, period.End)
		if limit == 0 {
			return []core.Transaction{}
		}
		return dashboard.LatestTransactions(inPeriod, limit)
	})
}
