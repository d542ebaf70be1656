// Package gate guards access to views that require an authenticated
// session. It blocks while the session is still resolving, and when the
// user is signed out it reports which destination was requested so the
// caller can send them back there after sign-in.
package gate

import (
	"context"
	"fmt"

	"client/internal/domain"
	"client/internal/session"
)

// SignInRequiredError carries the destination the caller was denied, as a
// return-after-login hint. It never triggers navigation by itself.
type SignInRequiredError struct {
	Destination string
}

func (e *SignInRequiredError) Error() string {
	if e.Destination == "" {
		return "sign in required"
	}
	return fmt.Sprintf("sign in required to access %q", e.Destination)
}

// Gate guards entry to authenticated views.
type Gate struct {
	sessions *session.Provider
}

// New builds a Gate over the session provider.
func New(sessions *session.Provider) *Gate {
	return &Gate{sessions: sessions}
}

// Require waits out initialization, then either returns the current user
// or a SignInRequiredError naming the requested destination. The check
// reads live session state, so a background logout is reflected on the
// next call; per-feature entitlement stays with the guarded view itself.
func (g *Gate) Require(ctx context.Context, destination string) (domain.User, error) {
	if err := g.sessions.Wait(ctx); err != nil {
		return domain.User{}, err
	}
	user, ok := g.sessions.User()
	if !ok || g.sessions.Status() != session.StatusAuthenticated {
		return domain.User{}, &SignInRequiredError{Destination: destination}
	}
	return user, nil
}
