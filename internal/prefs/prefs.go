// Package prefs persists the user's language and theme choices. These live
// beside the token store but are independent of the session: they survive
// logout and apply before sign-in.
package prefs

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"client/internal/infra"
)

// Theme enumerates the display themes.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

const fileName = "prefs.json"

var supported = []language.Tag{language.English, language.Nepali}
var matcher = language.NewMatcher(supported)

// NormalizeLanguage maps any BCP 47 input onto a supported locale,
// defaulting to English for unknown or unsupported tags.
func NormalizeLanguage(raw string) string {
	tag, err := language.Parse(raw)
	if err != nil {
		return "en"
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return "en"
	}
	base, _ := supported[idx].Base()
	return base.String()
}

type data struct {
	Language string `json:"language,omitempty"`
	Theme    Theme  `json:"theme,omitempty"`
}

// Store reads and writes the preference file. Like the token store it is
// best-effort: failures log a warning and fall back to defaults.
type Store struct {
	path   string
	logger *infra.Logger
	mu     sync.Mutex
}

// NewStore builds a Store rooted at stateDir.
func NewStore(stateDir string, logger *infra.Logger) *Store {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Store{path: filepath.Join(stateDir, fileName), logger: logger}
}

// Language returns the persisted locale, defaulting to English.
func (s *Store) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v := s.load().Language; v != "" {
		return v
	}
	return "en"
}

// SetLanguage normalizes and persists a locale, returning what was stored.
func (s *Store) SetLanguage(raw string) string {
	locale := NormalizeLanguage(raw)
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.load()
	d.Language = locale
	s.save(d)
	return locale
}

// Theme returns the persisted theme, defaulting to system.
func (s *Store) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch v := s.load().Theme; v {
	case ThemeLight, ThemeDark, ThemeSystem:
		return v
	default:
		return ThemeSystem
	}
}

// SetTheme persists a theme choice. Unknown values reset to system.
func (s *Store) SetTheme(theme Theme) Theme {
	switch theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		theme = ThemeSystem
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.load()
	d.Theme = theme
	s.save(d)
	return theme
}

func (s *Store) load() data {
	var d data
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("prefs read failed")
		}
		return d
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("prefs corrupt, resetting")
		return data{}
	}
	return d
}

func (s *Store) save(d data) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("prefs mkdir failed")
		return
	}
	raw, err := json.Marshal(d)
	if err != nil {
		s.logger.Warn().Err(err).Msg("prefs encode failed")
		return
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		s.logger.Warn().Err(err).Str("path", tmp).Msg("prefs write failed")
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("prefs rename failed")
	}
}
