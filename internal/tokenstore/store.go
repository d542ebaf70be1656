// Package tokenstore persists the client's named credentials in a state
// file, each with its own expiry. It mirrors cookie semantics: values are
// opaque strings, expired entries simply stop being returned, and storage
// failures never propagate to callers.
package tokenstore

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"client/internal/infra"
)

const (
	// AccessToken is the short-lived credential attached to each request.
	AccessToken = "accessToken"
	// RefreshToken is the longer-lived credential for token exchange.
	RefreshToken = "refreshToken"

	// AccessTokenTTLDays is the client-side retention window for access tokens.
	AccessTokenTTLDays = 7
	// RefreshTokenTTLDays is the client-side retention window for refresh tokens.
	RefreshTokenTTLDays = 30

	fileName = "tokens.json"
)

type entry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store is a durable key-value store for a small set of named tokens.
// All operations are fire-and-forget: I/O failures are logged and the
// call otherwise behaves as if the store were empty.
type Store struct {
	path   string
	logger *infra.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewStore builds a Store rooted at stateDir. The directory is created on
// first write.
func NewStore(stateDir string, logger *infra.Logger) *Store {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Store{
		path:   filepath.Join(stateDir, fileName),
		logger: logger,
		now:    time.Now,
	}
}

// Set stores value under name with a ttl in days, overwriting any prior
// value and its expiry.
func (s *Store) Set(name, value string, ttlDays int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.load()
	entries[name] = entry{
		Value:     value,
		ExpiresAt: s.now().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}
	s.save(entries)
}

// Get returns the value stored under name, or the empty string when the
// token was never set, has expired, or was removed. Expired entries are
// pruned by the load path.
func (s *Store) Get(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()[name].Value
}

// Remove deletes a token unconditionally. Removing an absent name is a no-op.
func (s *Store) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.load()
	if _, ok := entries[name]; !ok {
		return
	}
	delete(entries, name)
	s.save(entries)
}

// Expiry reports when the named token lapses, for local inspection tools.
// The zero time means the token is absent.
func (s *Store) Expiry(name string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()[name].ExpiresAt
}

// load reads the state file and drops entries past their expiry. Unreadable
// or corrupt state behaves as empty.
func (s *Store) load() map[string]entry {
	entries := map[string]entry{}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("token store read failed")
		}
		return entries
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("token store corrupt, resetting")
		return map[string]entry{}
	}
	now := s.now()
	for name, e := range entries {
		if !e.ExpiresAt.After(now) {
			delete(entries, name)
		}
	}
	return entries
}

// save writes the state file atomically with owner-only permissions.
func (s *Store) save(entries map[string]entry) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("token store mkdir failed")
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		s.logger.Warn().Err(err).Msg("token store encode failed")
		return
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		s.logger.Warn().Err(err).Str("path", tmp).Msg("token store write failed")
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("token store rename failed")
	}
}
