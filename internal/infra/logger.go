package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process-wide zerolog.Logger. Generated content is
// printed on stdout, so all diagnostics go to stderr. Development runs get
// the console writer and debug level; everything else logs JSON at info.
func NewLogger(appEnv string) zerolog.Logger {
	dev := appEnv == "development"

	var out io.Writer = os.Stderr
	if dev {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Logger re-exports zerolog.Logger so the rest of the tree can take a logger
// without importing zerolog everywhere.
type Logger = zerolog.Logger
