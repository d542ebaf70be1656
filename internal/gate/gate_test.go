package gate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"client/internal/api"
	"client/internal/domain"
	"client/internal/infra"
	"client/internal/session"
	"client/internal/tokenstore"
)

func discardLogger() *infra.Logger {
	l := infra.Logger(zerolog.New(io.Discard))
	return &l
}

func newSession(t *testing.T, handler http.Handler) (*session.Provider, *api.Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	tokens := tokenstore.NewStore(t.TempDir(), nil)
	client, err := api.NewClient(api.Options{BaseURL: srv.URL, Tokens: tokens})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return session.NewProvider(client, tokens, discardLogger()), client
}

func loginHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":         domain.User{ID: "1", Email: "a@b.com"},
			"accessToken":  "A",
			"refreshToken": "R",
		})
	})
	mux.HandleFunc("GET /api/history", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	return mux
}

func TestRequireWaitsForInitialization(t *testing.T) {
	sessions, _ := newSession(t, http.NewServeMux())
	g := New(sessions)

	// Initialization has not resolved; Require must wait, not redirect.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := g.Require(ctx, "history"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Require() error = %v while initializing, want deadline exceeded", err)
	}

	sessions.Initialize(context.Background())
	_, err := g.Require(context.Background(), "history")
	var denied *SignInRequiredError
	if !errors.As(err, &denied) {
		t.Fatalf("Require() error = %v, want SignInRequiredError", err)
	}
	if denied.Destination != "history" {
		t.Fatalf("Destination = %q, want %q", denied.Destination, "history")
	}
}

func TestRequirePassesAuthenticatedUser(t *testing.T) {
	sessions, _ := newSession(t, loginHandler())
	sessions.Initialize(context.Background())
	if err := sessions.Login(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}

	user, err := New(sessions).Require(context.Background(), "history")
	if err != nil {
		t.Fatalf("Require() error: %v", err)
	}
	if user.Email != "a@b.com" {
		t.Fatalf("Require() user = %+v, want the signed-in user", user)
	}
}

func TestRequireReactsToBackgroundLogout(t *testing.T) {
	sessions, client := newSession(t, loginHandler())
	sessions.Initialize(context.Background())
	if err := sessions.Login(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	g := New(sessions)
	if _, err := g.Require(context.Background(), "history"); err != nil {
		t.Fatalf("Require() error before logout: %v", err)
	}

	// A 401 from any backend call revokes the session globally.
	if _, err := client.History(context.Background()); err == nil {
		t.Fatalf("History() expected unauthorized error")
	}

	_, err := g.Require(context.Background(), "history")
	var denied *SignInRequiredError
	if !errors.As(err, &denied) {
		t.Fatalf("Require() error = %v after background logout, want SignInRequiredError", err)
	}
}
