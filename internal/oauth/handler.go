// Package oauth completes the redirect-based Google sign-in flow. The
// backend sends the browser back to a local callback URL carrying the token
// pair as query parameters; this package runs the short-lived server that
// consumes them, hands them to the session provider, and reports the
// outcome to whoever started the flow.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"client/internal/infra"
	"client/internal/session"
)

// CallbackPath is the route the backend redirects to after Google sign-in.
const CallbackPath = "/auth/success"

// redirectDelay keeps the completion page on screen long enough to read
// before the flow resolves.
var redirectDelay = 1 * time.Second

// ErrMissingTokens indicates the redirect arrived without both tokens.
var ErrMissingTokens = errors.New("oauth: missing token or refresh parameter")

// Handler is a one-shot OAuth completion listener. Each flow consumes the
// callback exactly once; a duplicate browser request gets a static page and
// no second session attempt.
type Handler struct {
	sessions *session.Provider
	logger   *infra.Logger
	addr     string

	listener net.Listener
	once     sync.Once
	result   chan error
}

// NewHandler builds a Handler for the given listen address.
func NewHandler(sessions *session.Provider, logger *infra.Logger, addr string) *Handler {
	return &Handler{
		sessions: sessions,
		logger:   logger,
		addr:     addr,
		result:   make(chan error, 1),
	}
}

// Listen binds the callback address. Must be called before RedirectURI so
// the advertised URL carries the actual port.
func (h *Handler) Listen() error {
	listener, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("oauth: listen on %s: %w", h.addr, err)
	}
	h.listener = listener
	h.addr = listener.Addr().String()
	return nil
}

// RedirectURI is the full callback URL to hand to the backend.
func (h *Handler) RedirectURI() string {
	return "http://" + h.addr + CallbackPath
}

// Serve handles the callback route and blocks until the flow completes or
// ctx is done. It returns nil when sign-in succeeded, ErrMissingTokens or
// the session provider's error when it did not, and ctx.Err() on timeout.
func (h *Handler) Serve(ctx context.Context) error {
	if h.listener == nil {
		if err := h.Listen(); err != nil {
			return err
		}
	}

	r := chi.NewRouter()
	r.Get(CallbackPath, h.complete)

	srv := &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(h.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error().Err(err).Msg("oauth callback server failed")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	select {
	case err := <-h.result:
		// Give the browser a moment to render the notification page.
		time.Sleep(redirectDelay)
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// complete consumes the redirect parameters. Only the first invocation per
// flow reaches the session provider.
func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	ran := false
	h.once.Do(func() {
		ran = true
		h.handle(w, r)
	})
	if !ran {
		h.logger.Debug().Msg("duplicate oauth callback ignored")
		writePage(w, "Sign-in already handled", "You can close this tab.")
	}
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	refresh := r.URL.Query().Get("refresh")

	if token == "" || refresh == "" {
		h.logger.Warn().Msg("oauth redirect missing tokens")
		writePage(w, "Authentication failed", "Missing authentication tokens. Please try signing in again.")
		h.result <- ErrMissingTokens
		return
	}

	if err := h.sessions.HandleOAuthSuccess(r.Context(), token, refresh); err != nil {
		writePage(w, "Authentication failed", err.Error()+" Please try signing in again.")
		h.result <- err
		return
	}

	writePage(w, "Welcome!", "Successfully signed in to your account. You can close this tab.")
	h.result <- nil
}

func writePage(w http.ResponseWriter, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!doctype html><html><head><title>%s</title></head><body><h1>%s</h1><p>%s</p></body></html>", title, title, body)
}
