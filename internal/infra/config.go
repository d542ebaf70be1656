package infra

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config represents client configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	APIBaseURL        string
	OAuthCallbackAddr string
	StateDir          string
	DeveloperEmails   []string
	DefaultLocale     string
	HTTPTimeout       time.Duration
	OAuthWaitTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		APIBaseURL:        getEnv("API_BASE_URL", "http://localhost:3000"),
		OAuthCallbackAddr: getEnv("OAUTH_CALLBACK_ADDR", "127.0.0.1:8765"),
		StateDir:          os.Getenv("STATE_DIR"),
		DeveloperEmails:   splitList(os.Getenv("DEVELOPER_EMAILS")),
		DefaultLocale:     getEnv("DEFAULT_LOCALE", "en"),
		HTTPTimeout:       time.Second * time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 30)),
		OAuthWaitTimeout:  time.Second * time.Duration(getEnvInt("OAUTH_WAIT_TIMEOUT_SECONDS", 180)),
	}

	parsed, err := url.Parse(cfg.APIBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("API_BASE_URL %q is not a valid URL", cfg.APIBaseURL)
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if cfg.StateDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve state dir: %w", err)
		}
		cfg.StateDir = filepath.Join(base, "voiceai")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
