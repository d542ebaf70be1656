// Package session owns the client's authentication state: one Provider per
// process is the single source of truth for who is signed in. It drives the
// token store, talks to the backend auth endpoints, and is the only place
// that transitions session status.
package session

import (
	"context"
	"errors"
	"sync"

	"client/internal/api"
	"client/internal/domain"
	"client/internal/infra"
	"client/internal/tokenstore"
)

// Status enumerates the session states.
type Status string

const (
	StatusInitializing    Status = "initializing"
	StatusUnauthenticated Status = "unauthenticated"
	StatusAuthenticated   Status = "authenticated"
)

const (
	loginFallback    = "Login failed"
	registerFallback = "Registration failed"
	profileFallback  = "Profile update failed"
	oauthFallback    = "Failed to complete authentication"
	fetchFallback    = "Failed to load profile"
)

// Provider is the process-wide session state machine. It starts in
// StatusInitializing and resolves exactly once, via Initialize, to either
// authenticated (stored token + successful profile fetch) or
// unauthenticated. After that, only login, register, OAuth completion,
// logout, and backend 401s move the state.
type Provider struct {
	api    *api.Client
	tokens *tokenstore.Store
	logger *infra.Logger

	mu        sync.Mutex
	status    Status
	user      *domain.User
	listeners []func(Status)

	initOnce sync.Once
	ready    chan struct{}
}

// NewProvider wires a Provider to its collaborators and installs the
// global unauthorized hook: any backend call answered with 401, from any
// component, tears the session down through Logout.
func NewProvider(client *api.Client, tokens *tokenstore.Store, logger *infra.Logger) *Provider {
	p := &Provider{
		api:    client,
		tokens: tokens,
		logger: logger,
		status: StatusInitializing,
		ready:  make(chan struct{}),
	}
	client.SetUnauthorizedHook(p.Logout)
	return p
}

// Initialize resolves the startup session state. With no stored access
// token it settles on unauthenticated without touching the network; with
// one, it fetches the profile and either adopts the user or clears the
// stale tokens. Runs at most once per process; later calls are no-ops.
func (p *Provider) Initialize(ctx context.Context) {
	p.initOnce.Do(func() {
		defer close(p.ready)

		token := p.tokens.Get(tokenstore.AccessToken)
		if token == "" {
			p.setSession(nil, StatusUnauthenticated)
			return
		}

		user, err := p.api.Profile(ctx)
		if err != nil {
			// Stale tokens would retry-loop on every start; drop them.
			p.logger.Debug().Err(err).Msg("startup profile fetch failed")
			p.clearSession()
			return
		}
		p.setSession(&user, StatusAuthenticated)
	})
}

// Wait blocks until initialization has resolved or ctx is done.
func (p *Provider) Wait(ctx context.Context) error {
	select {
	case <-p.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the current session state.
func (p *Provider) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// User returns the current user snapshot. The second return is false
// except in the authenticated state.
func (p *Provider) User() (domain.User, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.user == nil {
		return domain.User{}, false
	}
	return *p.user, true
}

// OnChange registers a listener invoked after every status transition.
// Listeners run outside the provider lock and must not block.
func (p *Provider) OnChange(fn func(Status)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Login exchanges credentials for a session. On failure the state is left
// untouched and the returned error carries the backend's message, or a
// generic one when the backend gave none. No automatic retry.
func (p *Provider) Login(ctx context.Context, email, password string) error {
	payload, err := p.api.Login(ctx, email, password)
	if err != nil {
		return authError(err, loginFallback)
	}
	p.adoptSession(payload)
	return nil
}

// Register creates an account; same contract as Login.
func (p *Provider) Register(ctx context.Context, name, email, password string) error {
	payload, err := p.api.Register(ctx, name, email, password)
	if err != nil {
		return authError(err, registerFallback)
	}
	p.adoptSession(payload)
	return nil
}

// Logout clears both tokens and resets the session. Idempotent, always
// succeeds, safe from any state. Also invoked by the transport's 401 hook.
func (p *Provider) Logout() {
	p.clearSession()
}

// UpdateProfile replaces the mutable profile fields. Only valid while
// authenticated; the session state does not change, just the user data.
func (p *Provider) UpdateProfile(ctx context.Context, update api.ProfileUpdate) error {
	if p.Status() != StatusAuthenticated {
		return domain.ErrNotAuthenticated
	}
	user, err := p.api.UpdateProfile(ctx, update)
	if err != nil {
		return authError(err, profileFallback)
	}
	p.setSession(&user, StatusAuthenticated)
	return nil
}

// RefreshProfile re-fetches the user snapshot, resyncing usage counters
// after a quota-consuming action.
func (p *Provider) RefreshProfile(ctx context.Context) error {
	if p.Status() != StatusAuthenticated {
		return domain.ErrNotAuthenticated
	}
	user, err := p.api.Profile(ctx)
	if err != nil {
		return authError(err, fetchFallback)
	}
	p.setSession(&user, StatusAuthenticated)
	return nil
}

// HandleOAuthSuccess completes the redirect flow: the two tokens are
// stored provisionally, then verified by a profile fetch. If verification
// fails the tokens are rolled back and the session stays signed out.
func (p *Provider) HandleOAuthSuccess(ctx context.Context, accessToken, refreshToken string) error {
	p.tokens.Set(tokenstore.AccessToken, accessToken, tokenstore.AccessTokenTTLDays)
	p.tokens.Set(tokenstore.RefreshToken, refreshToken, tokenstore.RefreshTokenTTLDays)

	user, err := p.api.Profile(ctx)
	if err != nil {
		p.logger.Debug().Err(err).Msg("oauth profile fetch failed, rolling back tokens")
		p.clearSession()
		return authError(err, oauthFallback)
	}
	p.setSession(&user, StatusAuthenticated)
	return nil
}

// adoptSession stores a fresh token pair and marks the session authenticated.
func (p *Provider) adoptSession(payload api.AuthPayload) {
	p.tokens.Set(tokenstore.AccessToken, payload.AccessToken, tokenstore.AccessTokenTTLDays)
	p.tokens.Set(tokenstore.RefreshToken, payload.RefreshToken, tokenstore.RefreshTokenTTLDays)
	user := payload.User
	p.setSession(&user, StatusAuthenticated)
}

func (p *Provider) clearSession() {
	p.tokens.Remove(tokenstore.AccessToken)
	p.tokens.Remove(tokenstore.RefreshToken)
	p.setSession(nil, StatusUnauthenticated)
}

func (p *Provider) setSession(user *domain.User, status Status) {
	p.mu.Lock()
	changed := p.status != status
	p.status = status
	p.user = user
	listeners := make([]func(Status), len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(status)
	}
}

// authError folds every failure mode into the uniform result shape the UI
// renders: the backend's message when it sent one, a generic fallback for
// transport failures and anything unexpected.
func authError(err error, fallback string) error {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return domain.NewAuthError(apiErr.Message, fallback)
	}
	return domain.NewAuthError("", fallback)
}
