package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stabledocs/regula/internal/domain"
)

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("rule r1: %w", domain.ErrNotFound), http.StatusNotFound},
		{"conflict", fmt.Errorf("checksum exists: %w", domain.ErrConflict), http.StatusConflict},
		{"config conflict", fmt.Errorf("activations disagree on clinical phase (phase_1 vs phase_2): %w", domain.ErrConfigConflict), http.StatusConflict},
		{"validation", fmt.Errorf("justification is required: %w", domain.ErrValidation), http.StatusBadRequest},
		{"unknown", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeDomainError(rec, tt.err, "resource not found")

			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error == "" {
				t.Error("expected error message in body")
			}
		})
	}
}

func TestWriteDomainErrorStripsSentinelSuffix(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, fmt.Errorf("justification must not be empty: %w", domain.ErrValidation), "")

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "justification must not be empty" {
		t.Errorf("expected clean message, got %q", body.Error)
	}
}

func TestWriteDomainErrorConfigConflict(t *testing.T) {
	rec := httptest.NewRecorder()
	writeDomainError(rec, fmt.Errorf("activations disagree on numbering mode (ctd vs impd): %w", domain.ErrConfigConflict), "")

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "activations disagree on numbering mode (ctd vs impd)" {
		t.Errorf("expected clean message, got %q", body.Error)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS("http://localhost:3000")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/rules", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("unexpected allow-origin %q", got)
	}
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=25&bad=x", http.NoBody)

	if got := queryInt(req, "limit", 0); got != 25 {
		t.Errorf("expected 25, got %d", got)
	}
	if got := queryInt(req, "bad", 7); got != 7 {
		t.Errorf("expected fallback 7, got %d", got)
	}
	if got := queryInt(req, "absent", 3); got != 3 {
		t.Errorf("expected fallback 3, got %d", got)
	}
}
