package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var defaultLogger *slog.Logger

// Options selects level and output format. Format is one of json, text or
// console; console renders records through zerolog's ConsoleWriter.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// Setup builds the process logger from opts and installs it as slog's default.
func Setup(opts Options) *slog.Logger {
	defaultLogger = New(opts)
	slog.SetDefault(defaultLogger)
	return defaultLogger
}

// New builds a logger without touching the process default.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	switch opts.Format {
	case "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	case "console":
		handlerOpts.ReplaceAttr = consoleAttr
		handler = slog.NewJSONHandler(zerolog.ConsoleWriter{Out: out, NoColor: opts.Output != nil, TimeFormat: "15:04:05.000"}, handlerOpts)
	default:
		handler = slog.NewTextHandler(out, handlerOpts)
	}
	return slog.New(handler)
}

// consoleAttr renames slog's top level keys to the ones ConsoleWriter parses.
func consoleAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.MessageKey:
		a.Key = zerolog.MessageFieldName
	case slog.LevelKey:
		a = slog.String(zerolog.LevelFieldName, strings.ToLower(a.Value.String()))
	case slog.TimeKey:
		a.Key = zerolog.TimestampFieldName
	}
	return a
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		Setup(Options{Level: "debug", Format: "text"})
	}
	return defaultLogger
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}
