package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the application logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is debug, info, warn or error. Empty means info.
	Level string
	// Format is json or text. Empty means json.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// AddSource adds source file information to log entries.
	AddSource bool
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Output: os.Stderr}
}

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

type handlerFunc func(w io.Writer, opts *slog.HandlerOptions) slog.Handler

var formats = map[string]handlerFunc{
	"json": func(w io.Writer, opts *slog.HandlerOptions) slog.Handler { return slog.NewJSONHandler(w, opts) },
	"text": func(w io.Writer, opts *slog.HandlerOptions) slog.Handler { return slog.NewTextHandler(w, opts) },
}

// level is shared by every logger built by New, so SetLevel affects
// loggers already handed out.
var level = new(slog.LevelVar)

// slogLogger binds a slog.Logger to the context passed to its handler.
type slogLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

// New creates a logger and sets the process-wide level.
func New(cfg Config) (Logger, error) {
	lvl := slog.LevelInfo
	if cfg.Level != "" {
		l, ok := levelNames[strings.ToLower(cfg.Level)]
		if !ok {
			return nil, fmt.Errorf("unknown log level %q", cfg.Level)
		}
		lvl = l
	}

	format := strings.ToLower(cfg.Format)
	switch format {
	case "":
		format = "json"
	case "console":
		format = "text"
	}
	newHandler, ok := formats[format]
	if !ok {
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	level.Set(lvl)
	h := newHandler(out, &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	})
	return &slogLogger{logger: slog.New(h), ctx: context.Background()}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return &slogLogger{logger: slog.New(slog.DiscardHandler), ctx: context.Background()}
}

// SetLevel changes the level of every logger built by New. Unknown names
// are ignored.
func SetLevel(name string) {
	if l, ok := levelNames[strings.ToLower(name)]; ok {
		level.Set(l)
	}
}

// GetLevel returns the current level name.
func GetLevel() string {
	switch l := level.Level(); {
	case l <= slog.LevelDebug:
		return "debug"
	case l <= slog.LevelInfo:
		return "info"
	case l <= slog.LevelWarn:
		return "warn"
	default:
		return "error"
	}
}

// ValidLevel reports whether name is a known log level.
func ValidLevel(name string) bool {
	_, ok := levelNames[strings.ToLower(name)]
	return ok
}

// ValidFormat reports whether name is a known output format.
func ValidFormat(name string) bool {
	name = strings.ToLower(name)
	_, ok := formats[name]
	return ok || name == "console"
}

func (l *slogLogger) Debug(msg string, args ...any) { l.logger.DebugContext(l.ctx, msg, args...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.logger.InfoContext(l.ctx, msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.logger.WarnContext(l.ctx, msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.logger.ErrorContext(l.ctx, msg, args...) }

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...), ctx: l.ctx}
}

func (l *slogLogger) WithContext(ctx context.Context) Logger {
	return &slogLogger{logger: l.logger, ctx: ctx}
}

var defaultLogger atomic.Pointer[slogLogger]

func init() {
	l, _ := New(DefaultConfig())
	defaultLogger.Store(l.(*slogLogger))
}

// SetDefault replaces the logger used by the package-level functions.
// Loggers from other implementations are ignored.
func SetDefault(l Logger) {
	if sl, ok := l.(*slogLogger); ok {
		defaultLogger.Store(sl)
	}
}

// Default returns the process-wide logger.
func Default() Logger {
	return defaultLogger.Load()
}

func Debug(msg string, args ...any) { defaultLogger.Load().Debug(msg, args...) }
func Info(msg string, args ...any)  { defaultLogger.Load().Info(msg, args...) }
func Warn(msg string, args ...any)  { defaultLogger.Load().Warn(msg, args...) }
func Error(msg string, args ...any) { defaultLogger.Load().Error(msg, args...) }
