// Package api is the HTTP client for the content-generation backend. It
// owns the outbound request surface: bearer auth, request IDs, locale
// hints, and the uniform treatment of unauthorized responses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"client/internal/domain"
	"client/internal/infra"
	"client/internal/tokenstore"
)

// Options configures the backend client.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	Tokens         *tokenstore.Store
	Logger         *infra.Logger
	Locale         func() string
	RequestTimeout time.Duration
}

// Client performs HTTP calls against the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *tokenstore.Store
	logger     *infra.Logger

	hookMu         sync.Mutex
	onUnauthorized func()
}

// APIError is a non-success response from the backend, carrying whatever
// human-readable message the error body held.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

// AuthPayload is the backend's response to register, login, and OAuth
// verification: the user snapshot plus a fresh token pair.
type AuthPayload struct {
	User         domain.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// ProfileUpdate carries the mutable profile fields.
type ProfileUpdate struct {
	Name string `json:"name"`
}

// AudioRequest captures the inputs for audio synthesis.
type AudioRequest struct {
	Content      string `json:"content"`
	Language     string `json:"language"`
	BusinessName string `json:"businessName"`
	ContentType  string `json:"contentType"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("api: base url is required")
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	c := &Client{
		baseURL: baseURL,
		tokens:  opts.Tokens,
		logger:  logger,
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	// Wrap a copy so an injected client is not mutated behind the caller.
	wrapped := *httpClient
	wrapped.Transport = &transport{
		base:   base,
		client: c,
		tokens: opts.Tokens,
		locale: opts.Locale,
	}
	c.httpClient = &wrapped

	return c, nil
}

// SetUnauthorizedHook installs the callback invoked once per unauthorized
// response, whichever endpoint produced it. The session provider uses it
// to tear down the current session.
func (c *Client) SetUnauthorizedHook(hook func()) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.onUnauthorized = hook
}

func (c *Client) notifyUnauthorized() {
	c.hookMu.Lock()
	hook := c.onUnauthorized
	c.hookMu.Unlock()
	if hook != nil {
		hook()
	}
}

// Register creates an account and returns the initial session payload.
func (c *Client) Register(ctx context.Context, name, email, password string) (AuthPayload, error) {
	var out AuthPayload
	body := map[string]string{"name": name, "email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/register", body, &out)
	return out, err
}

// Login exchanges credentials for a session payload.
func (c *Client) Login(ctx context.Context, email, password string) (AuthPayload, error) {
	var out AuthPayload
	body := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/login", body, &out)
	return out, err
}

// Profile fetches the current user using the stored access token.
func (c *Client) Profile(ctx context.Context) (domain.User, error) {
	var out struct {
		User domain.User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &out)
	return out.User, err
}

// UpdateProfile replaces the mutable profile fields and returns the
// updated user snapshot.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (domain.User, error) {
	var out struct {
		User domain.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPut, "/auth/profile", update, &out)
	return out.User, err
}

// GoogleLoginURL is the browser destination that starts the OAuth flow.
// The backend redirects back to redirectURI with token and refresh query
// parameters on completion.
func (c *Client) GoogleLoginURL(redirectURI string) string {
	u := c.baseURL + "/auth/google"
	if redirectURI != "" {
		u += "?redirect_uri=" + url.QueryEscape(redirectURI)
	}
	return u
}

// GenerateContent produces marketing text for a business profile.
func (c *Client) GenerateContent(ctx context.Context, profile domain.BusinessProfile, language string) (domain.GeneratedContent, error) {
	body := struct {
		domain.BusinessProfile
		Language string `json:"language,omitempty"`
	}{BusinessProfile: profile, Language: language}
	var out struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/generate-content", body, &out); err != nil {
		return domain.GeneratedContent{}, err
	}
	return domain.GeneratedContent{
		ID:           out.ID,
		BusinessName: profile.BusinessName,
		Content:      out.Content,
		Language:     language,
	}, nil
}

// GenerateAudio synthesizes narration for previously generated content.
// Content shorter than five characters is rejected locally before any
// network call, matching the backend's validation.
func (c *Client) GenerateAudio(ctx context.Context, req AudioRequest) (domain.AudioResult, error) {
	if len(strings.TrimSpace(req.Content)) < 5 {
		return domain.AudioResult{}, domain.ErrContentTooShort
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.ContentType == "" {
		req.ContentType = "business_description"
	}
	var out struct {
		Audio domain.AudioResult `json:"audio"`
	}
	err := c.do(ctx, http.MethodPost, "/api/audio/generate", req, &out)
	return out.Audio, err
}

// ModifyMessage is one prior exchange in a modification conversation.
type ModifyMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// ModifyRequest asks the backend to rework previously generated content
// according to a free-form instruction.
type ModifyRequest struct {
	OriginalContent     string          `json:"originalContent"`
	BusinessName        string          `json:"businessName,omitempty"`
	UserRequest         string          `json:"userRequest"`
	ConversationHistory []ModifyMessage `json:"conversationHistory,omitempty"`
}

// ModifyResult is the reworked text plus what the backend changed.
type ModifyResult struct {
	ModifiedContent string   `json:"modifiedContent"`
	Modifications   []string `json:"modifications"`
}

// Modify reworks generated content per the user's instruction.
func (c *Client) Modify(ctx context.Context, req ModifyRequest) (ModifyResult, error) {
	var out ModifyResult
	err := c.do(ctx, http.MethodPost, "/api/modify", req, &out)
	return out, err
}

// History lists the user's past generations, newest first.
func (c *Client) History(ctx context.Context) ([]domain.GeneratedContent, error) {
	var out struct {
		History []domain.GeneratedContent `json:"history"`
	}
	err := c.do(ctx, http.MethodGet, "/api/history", nil, &out)
	return out.History, err
}

// Content fetches a single generation by ID.
func (c *Client) Content(ctx context.Context, id string) (domain.GeneratedContent, error) {
	var out struct {
		Content domain.GeneratedContent `json:"content"`
	}
	err := c.do(ctx, http.MethodGet, "/api/"+url.PathEscape(id), nil, &out)
	return out.Content, err
}

// Bookmark toggles the bookmark flag on a generation.
func (c *Client) Bookmark(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/api/"+url.PathEscape(id)+"/bookmark", nil, nil)
}

// Rate records a rating and optional feedback for a generation.
func (c *Client) Rate(ctx context.Context, id string, rating int, feedback string) error {
	body := map[string]any{"rating": rating, "feedback": feedback}
	return c.do(ctx, http.MethodPatch, "/api/"+url.PathEscape(id)+"/rate", body, nil)
}

// DeleteContent removes a generation from history.
func (c *Client) DeleteContent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/"+url.PathEscape(id), nil, nil)
}

// Stats aggregates the user's generation history.
func (c *Client) Stats(ctx context.Context) (domain.UsageStats, error) {
	var out struct {
		Stats domain.UsageStats `json:"stats"`
	}
	err := c.do(ctx, http.MethodGet, "/api/stats", nil, &out)
	return out.Stats, err
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details []struct {
		Msg string `json:"msg"`
	} `json:"details"`
}

func (b errorBody) text() string {
	if len(b.Details) > 0 {
		msgs := make([]string, 0, len(b.Details))
		for _, d := range b.Details {
			if d.Msg != "" {
				msgs = append(msgs, d.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, ", ")
		}
	}
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var detail errorBody
		_ = json.Unmarshal(raw, &detail)
		apiErr := &APIError{Status: resp.StatusCode, Message: detail.text()}
		c.logger.Debug().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("path", path).
			Str("message", apiErr.Message).
			Msg("backend error response")
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("api: decode response: %w", err)
		}
	}
	return nil
}
