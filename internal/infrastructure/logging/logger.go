package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aurora-obs/aurora-core/internal/infrastructure/config"
)

// service is stamped on every record alongside the version.
const service = "auroracore"

// Logger wraps slog.Logger so call sites depend on this package rather
// than on slog directly. Safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New builds the daemon logger from configuration: JSON or text records,
// level filtering, and service/version attributes on every line.
func New(cfg config.LoggingConfig, version string) *Logger {
	return NewWriter(cfg, version, destination(cfg.Output))
}

// NewWriter is New with an explicit destination, for callers that
// capture output.
func NewWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", service),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(handler)}
}

func destination(output string) io.Writer {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

// parseLevel maps a config string to a slog level, defaulting to info on
// anything unrecognised rather than failing startup.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// With returns a child logger carrying extra default attributes.
//
//	mqttLog := log.With("component", "mqtt")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default is the pre-configuration logger: JSON to stdout at info level,
// for errors raised before config.Load has run.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}
