package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestActorFromHeader(t *testing.T) {
	var captured string
	handler := Actor(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		captured = ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("X-Actor", "j.doe")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if captured != "j.doe" {
		t.Errorf("expected actor j.doe, got %q", captured)
	}
}

func TestActorDefault(t *testing.T) {
	var captured string
	handler := Actor(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		captured = ActorFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if captured != DefaultActor {
		t.Errorf("expected default actor, got %q", captured)
	}
}

func TestActorFromContextBare(t *testing.T) {
	if got := ActorFromContext(context.Background()); got != DefaultActor {
		t.Errorf("expected default actor on bare context, got %q", got)
	}
}
