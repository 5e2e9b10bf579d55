package http

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"moneyflow/internal/api"
	"moneyflow/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "yes").
		Body(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != contentTypeJSON {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("X-Test"); got != "yes" {
		t.Errorf("X-Test = %q", got)
	}
	if w.Body.String() != `{"n":1}` {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_RawBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().RawBody([]byte(`[1,2]`)).Write(w)
	if w.Body.String() != `[1,2]` {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Body("ignored").NoContent().Write(w)
	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d, want 204", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
	if w.Header().Get("Content-Type") != "" {
		t.Error("204 must not carry a Content-Type")
	}
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Body(math.NaN()).Write(w)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name     string
		builder  *JSONResponseBuilder
		wantCode int
	}{
		{"BadRequest", BadRequestError("bad"), http.StatusBadRequest},
		{"UnprocessableEntity", UnprocessableEntityError("bad"), http.StatusUnprocessableEntity},
		{"NotFound", NotFoundError("bad"), http.StatusNotFound},
		{"BadGateway", BadGatewayError("bad"), http.StatusBadGateway},
		{"ServiceUnavailable", ServiceUnavailableError("bad"), http.StatusServiceUnavailable},
		{"TooManyRequests", TooManyRequestsError("bad"), http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.wantCode {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantCode)
			}
			if w.Body.String() != `{"error":"bad"}` {
				t.Errorf("Body = %q", w.Body.String())
			}
		})
	}
}

func TestErrorFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"request", badRequest("days must be positive"), http.StatusBadRequest},
		{"validation", fmt.Errorf("create transaction: %w", core.ErrInvalidAmount), http.StatusUnprocessableEntity},
		{"too long", fmt.Errorf("note: %w", core.ErrTooLong), http.StatusUnprocessableEntity},
		{"not found", fmt.Errorf("delete category: %w", core.ErrNotFound), http.StatusNotFound},
		{"committed", core.ErrAlreadyCommitted, http.StatusConflict},
		{"upstream validation", fmt.Errorf("create: %w", &api.Error{Status: 422}), http.StatusUnprocessableEntity},
		{"upstream outage", fmt.Errorf("list: %w", &api.Error{Status: 503}), http.StatusBadGateway},
		{"network", errors.New("connection refused"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorFor(tt.err).Write(w)
			if w.Code != tt.wantCode {
				t.Errorf("ErrorFor(%v) status = %d, want %d", tt.err, w.Code, tt.wantCode)
			}
		})
	}
}
