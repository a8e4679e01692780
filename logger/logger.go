package logger

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Logger is a zerolog logger bound to a service name.
type Logger struct {
	zl      zerolog.Logger
	service string
}

// New creates a logger writing to the configured output.
func New(cfg *Config, service string) *Logger {
	return NewWithWriter(cfg.writer(), cfg, service)
}

// NewWithWriter creates a logger writing to w. An unparsable level falls
// back to info.
func NewWithWriter(w io.Writer, cfg *Config, service string) *Logger {
	lvl, err := cfg.level()
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	if cfg.console() {
		w = consoleWriter(w, cfg, service)
	}
	zc := zerolog.New(w).Level(lvl).With()
	if cfg.Timestamp {
		zc = zc.Timestamp()
	}
	if cfg.Caller {
		// Skip the level method and emit.
		zc = zc.CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + 2)
	}
	return &Logger{zl: zc.Logger(), service: service}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Service returns the service name the logger was created for.
func (l *Logger) Service() string { return l.service }

// WithComponent returns a child logger with the component field set.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zl: l.zl.With().Str(FieldComponent, name).Logger(), service: l.service}
}

// WithFields returns a child logger carrying fields on every event.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return &Logger{zl: l.zl.With().Fields(fields).Logger(), service: l.service}
}

// Enabled reports whether an event at level would be written. Callers use
// it to skip building expensive fields.
func (l *Logger) Enabled(level zerolog.Level) bool {
	return level >= l.zl.GetLevel() && level >= zerolog.GlobalLevel()
}

func (l *Logger) Debug(msg string, fields ...map[string]any) { emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...map[string]any)  { emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...map[string]any)  { emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...map[string]any) { emit(l.zl.Error(), msg, fields) }

// emit is a no-op for the nil event zerolog returns below the level.
func emit(e *zerolog.Event, msg string, fields []map[string]any) {
	if e == nil {
		return
	}
	for _, f := range fields {
		e.Fields(f)
	}
	e.Msg(msg)
}

var global atomic.Pointer[Logger]

// SetGlobalLogger replaces the global logger. Nil restores the default
// console logger on stderr.
func SetGlobalLogger(l *Logger) { global.Store(l) }

// GetGlobalLogger returns the global logger, installing the default one on
// first use.
func GetGlobalLogger() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	var cfg Config
	cfg.ApplyDefaults()
	global.CompareAndSwap(nil, New(&cfg, ""))
	return global.Load()
}

func Debug(msg string, fields ...map[string]any) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]any)  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]any)  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]any) { GetGlobalLogger().Error(msg, fields...) }

// WithComponent tags the global logger.
func WithComponent(name string) *Logger {
	return GetGlobalLogger().WithComponent(name)
}

const ansiReset = "\033[0m"

var levelStyle = map[string]struct{ tag, color string }{
	zerolog.LevelTraceValue: {"TRC", "\033[90m"},
	zerolog.LevelDebugValue: {"DBG", "\033[36m"},
	zerolog.LevelInfoValue:  {"INF", "\033[32m"},
	zerolog.LevelWarnValue:  {"WRN", "\033[33m"},
	zerolog.LevelErrorValue: {"ERR", "\033[31m"},
	zerolog.LevelFatalValue: {"FTL", "\033[35m"},
	zerolog.LevelPanicValue: {"PNC", "\033[35m"},
}

// consoleWriter renders "15:04:05 service INF message key=value".
func consoleWriter(w io.Writer, cfg *Config, service string) zerolog.ConsoleWriter {
	cw := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    cfg.NoColor,
		FormatLevel: func(i any) string {
			lvl, _ := i.(string)
			style, ok := levelStyle[lvl]
			if !ok {
				style.tag = strings.ToUpper(fmt.Sprint(i))
			}
			out := paint(style.tag, style.color, cfg.NoColor)
			if service != "" {
				out = paint(service, "\033[34m", cfg.NoColor) + " " + out
			}
			return out
		},
	}
	if !cfg.Timestamp {
		cw.PartsOrder = []string{zerolog.LevelFieldName, zerolog.CallerFieldName, zerolog.MessageFieldName}
	}
	return cw
}

func paint(s, color string, noColor bool) string {
	if noColor || color == "" {
		return s
	}
	return color + s + ansiReset
}
