package http

import (
	"context"
	"net/http"
	"time"

	"moneyflow/internal/core"
	"moneyflow/internal/log"
)

const readyTimeout = 3 * time.Second

// fail logs err with the request's logger and writes its mapped response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := ErrorFor(err)
	if resp.statusCode >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Finance operation failed",
			log.FieldOperation, op,
			log.FieldError, err)
	} else {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Request rejected",
			log.FieldOperation, op,
			log.FieldError, err)
	}
	resp.Write(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status": "ok",
		"uptime": s.now().Sub(s.startedAt).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports ready once the store has data and the optional
// backend probe passes.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness probe failed", log.FieldError, err)
			ServiceUnavailableError("backend not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]any{
		"status":     "ready",
		"sessions":   s.hub.Sessions(),
		"cached":     s.cache.Size(),
		"categories": len(s.store.Categories()),
	}).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.store.Categories()).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := DecodeJSON(w, r, &c); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	sanitizeCategory(&c)
	c.ID = ""
	if err := c.Validate(); err != nil {
		s.fail(w, r, log.OpValidate, err)
		return
	}
	created, err := s.store.AddCategory(r.Context(), c)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := DecodeJSON(w, r, &c); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	sanitizeCategory(&c)
	c.ID = r.PathValue("id")
	if err := c.Validate(); err != nil {
		s.fail(w, r, log.OpValidate, err)
		return
	}
	updated, err := s.store.UpdateCategory(r.Context(), c)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(updated).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveCategory(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().NoContent().Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.store.Transactions()).Write(w)
}

// prepareTransaction fills the default currency and today's date before
// validating.
func (s *Server) prepareTransaction(t *core.Transaction) error {
	sanitizeTransaction(t)
	if t.Currency == "" {
		t.Currency = s.defaultCurrency
	}
	if t.Date == "" {
		t.Date = core.DateOf(s.now()).String()
	}
	return t.Validate()
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if err := DecodeJSON(w, r, &t); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	t.ID = ""
	if err := s.prepareTransaction(&t); err != nil {
		s.fail(w, r, log.OpValidate, err)
		return
	}
	created, err := s.store.AddTransaction(r.Context(), t)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if err := DecodeJSON(w, r, &t); err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	t.ID = r.PathValue("id")
	if err := s.prepareTransaction(&t); err != nil {
		s.fail(w, r, log.OpValidate, err)
		return
	}
	updated, err := s.store.UpdateTransaction(r.Context(), t)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(updated).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveTransaction(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().NoContent().Write(w)
}

// handleListRecurring tracks the requested month in the store so later
// recurring mutations reload it.
func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonth(r.URL.Query(), s.now())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	items, err := s.store.RecurringForMonth(r.Context(), month)
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Body(items).Write(w)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var rec core.RecurringExpense
	if err := DecodeJSON(w, r, &rec); err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	sanitizeRecurring(&rec)
	rec.ID = ""
	if rec.Date == "" {
		rec.Date = core.DateOf(s.now()).String()
	}
	if err := rec.Validate(); err != nil {
		s.fail(w, r, log.OpValidate, err)
		return
	}
	created, err := s.store.AddRecurringExpense(r.Context(), rec)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveRecurringExpense(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().NoContent().Write(w)
}
