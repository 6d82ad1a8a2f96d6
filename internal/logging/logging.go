package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/walletlink/walletlink-go/pkg/config"
	"github.com/walletlink/walletlink-go/pkg/log"
)

// New creates an slog logger for cfg, writing to stdout or stderr.
func New(cfg config.LoggingConfig, component string) *slog.Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		output = os.Stdout
	default:
		output = os.Stderr
	}
	return NewWithWriter(cfg, component, output)
}

// NewWithWriter creates an slog logger writing to w.
func NewWithWriter(cfg config.LoggingConfig, component string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	if component != "" {
		logger = logger.With("component", component)
	}
	return logger
}

// ParseLevel converts a level name to slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
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

// ProtocolLogger assembles the protocol event logger from cfg.
// The returned close function must be called to flush the log file.
func ProtocolLogger(cfg config.ProtocolLogConfig, slogger *slog.Logger) (log.Logger, func() error, error) {
	var loggers []log.Logger
	closeFn := func() error { return nil }

	if cfg.Path != "" {
		fl, err := log.NewFileLogger(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		loggers = append(loggers, fl)
		closeFn = fl.Close
	}
	if cfg.Slog && slogger != nil {
		loggers = append(loggers, log.NewSlogAdapter(slogger))
	}

	switch len(loggers) {
	case 0:
		return log.NoopLogger{}, closeFn, nil
	case 1:
		return loggers[0], closeFn, nil
	default:
		return log.NewMultiLogger(loggers...), closeFn, nil
	}
}
