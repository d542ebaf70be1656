package api

import (
	"net/http"

	"github.com/google/uuid"

	"client/internal/tokenstore"
)

// transport decorates every outbound request with the stored access token,
// a request ID, and the user's locale, and funnels unauthorized responses
// into a single hook. Session invalidation on 401 lives here and nowhere
// else; call sites never check for it themselves.
type transport struct {
	base   http.RoundTripper
	client *Client
	tokens *tokenstore.Store
	locale func() string
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if out.Header.Get("X-Request-ID") == "" {
		out.Header.Set("X-Request-ID", uuid.NewString())
	}
	if t.tokens != nil {
		if token := t.tokens.Get(tokenstore.AccessToken); token != "" {
			out.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if t.locale != nil {
		if locale := t.locale(); locale != "" {
			out.Header.Set("X-Locale", locale)
		}
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		t.client.notifyUnauthorized()
	}
	return resp, nil
}
