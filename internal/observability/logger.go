package observability

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns the process logger. Local development gets readable text
// at debug level; every other environment writes JSON at info.
func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	var handler slog.Handler

	if env == "dev" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}

	return slog.New(newContextHandler(handler)).With("service", "schedulehub", "env", env)
}
