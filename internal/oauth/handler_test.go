package oauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
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

type fixture struct {
	handler      *Handler
	sessions     *session.Provider
	tokens       *tokenstore.Store
	profileCalls *atomic.Int32
}

func newFixture(t *testing.T, profileStatus int) *fixture {
	t.Helper()
	redirectDelay = 0

	var calls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if profileStatus != http.StatusOK {
			w.WriteHeader(profileStatus)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user": domain.User{ID: "1", Email: "a@b.com"},
		})
	}))
	t.Cleanup(backend.Close)

	tokens := tokenstore.NewStore(t.TempDir(), nil)
	client, err := api.NewClient(api.Options{BaseURL: backend.URL, Tokens: tokens})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	sessions := session.NewProvider(client, tokens, discardLogger())
	sessions.Initialize(context.Background())

	h := NewHandler(sessions, discardLogger(), "127.0.0.1:0")
	if err := h.Listen(); err != nil {
		t.Fatalf("Listen() error: %v", err)
	}
	return &fixture{handler: h, sessions: sessions, tokens: tokens, profileCalls: &calls}
}

func (f *fixture) serve(t *testing.T) chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- f.handler.Serve(ctx)
	}()
	return done
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func TestCallbackCompletesSignIn(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	done := f.serve(t)

	body := get(t, f.handler.RedirectURI()+"?token=tok&refresh=ref")
	if !strings.Contains(body, "Welcome") {
		t.Fatalf("callback page = %q, want welcome notification", body)
	}
	if err := <-done; err != nil {
		t.Fatalf("Serve() error: %v", err)
	}
	if got := f.sessions.Status(); got != session.StatusAuthenticated {
		t.Fatalf("Status() = %q, want %q", got, session.StatusAuthenticated)
	}
	if f.tokens.Get(tokenstore.AccessToken) != "tok" {
		t.Fatalf("accessToken not stored after oauth completion")
	}
}

func TestCallbackMissingRefreshSkipsSession(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	done := f.serve(t)

	body := get(t, f.handler.RedirectURI()+"?token=tok")
	if !strings.Contains(body, "Missing authentication tokens") {
		t.Fatalf("callback page = %q, want missing-tokens notification", body)
	}
	if err := <-done; err != ErrMissingTokens {
		t.Fatalf("Serve() error = %v, want ErrMissingTokens", err)
	}
	if n := f.profileCalls.Load(); n != 0 {
		t.Fatalf("profile calls = %d, want 0 when parameters are missing", n)
	}
	if got := f.sessions.Status(); got != session.StatusUnauthenticated {
		t.Fatalf("Status() = %q, want %q", got, session.StatusUnauthenticated)
	}
}

func TestCallbackFailureRollsBack(t *testing.T) {
	f := newFixture(t, http.StatusUnauthorized)
	done := f.serve(t)

	body := get(t, f.handler.RedirectURI()+"?token=tok&refresh=ref")
	if !strings.Contains(body, "Authentication failed") {
		t.Fatalf("callback page = %q, want failure notification", body)
	}
	if err := <-done; err == nil {
		t.Fatalf("Serve() expected error after failed profile fetch")
	}
	if f.tokens.Get(tokenstore.AccessToken) != "" || f.tokens.Get(tokenstore.RefreshToken) != "" {
		t.Fatalf("tokens present after rollback")
	}
}

func TestDuplicateCallbackRunsOnce(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	// Drive the route directly so both requests land regardless of how
	// quickly the flow resolves.
	srv := httptest.NewServer(http.HandlerFunc(f.handler.complete))
	t.Cleanup(srv.Close)

	get(t, srv.URL+"?token=tok&refresh=ref")
	body := get(t, srv.URL+"?token=other&refresh=other")
	if !strings.Contains(body, "already handled") {
		t.Fatalf("duplicate callback page = %q, want already-handled notice", body)
	}
	if err := <-f.handler.result; err != nil {
		t.Fatalf("flow result = %v, want nil", err)
	}
	if n := f.profileCalls.Load(); n != 1 {
		t.Fatalf("profile calls = %d, want 1 for duplicate callbacks", n)
	}
	if f.tokens.Get(tokenstore.AccessToken) != "tok" {
		t.Fatalf("first callback's tokens were not the ones kept")
	}
}
