package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns the process logger. Development gets human-readable console
// output at debug level; every other environment gets JSON at info level.
func New(env string) zerolog.Logger {
	return newWithWriter(env, os.Stderr)
}

func newWithWriter(env string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w}).
			With().Timestamp().Logger().
			Level(zerolog.DebugLevel)
	}

	return zerolog.New(w).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}
