// FILE: lixenwraith/layered/logging.go
package layered

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds a text slog logger at the named level ("debug",
// "info", "warn", "error"; unknown names mean info). Providers accept
// any *slog.Logger; this is just the convenient default shape.
func NewLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
