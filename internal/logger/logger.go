// Package logger provides a simple logging interface for lookout components.
// Packages log through the Logger interface; the concrete implementation is a
// zap sugared logger writing to stderr or to a rotating file.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DebugEnv enables debug output when set to any non-empty value.
const DebugEnv = "LOOKOUT_DEBUG"

// LogFileName is the file created inside Options.Dir.
const LogFileName = "lookout.log"

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Options configures New.
type Options struct {
	// Dir, when set, sends JSON logs to a rotating file in this directory
	// instead of the console.
	Dir string
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Debug forces debug level regardless of Level.
	Debug bool
	// Console is the console destination. Defaults to os.Stderr.
	Console io.Writer
}

// zapLogger adapts a zap SugaredLogger to Logger.
type zapLogger struct {
	s *zap.SugaredLogger
}

// New builds a zap-backed Logger. The returned close function flushes
// buffered entries and must be called before exit.
func New(opts Options) (Logger, func() error, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	if opts.Debug || os.Getenv(DebugEnv) != "" {
		level = zapcore.DebugLevel
	}

	var core zapcore.Core
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, err
		}
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, LogFileName),
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		core = zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, level)
	} else {
		out := opts.Console
		if out == nil {
			out = os.Stderr
		}
		core = newConsoleCore(out, level)
	}

	z := zap.New(core)
	return &zapLogger{s: z.Sugar()}, z.Sync, nil
}

// NewConsole returns a console logger at info level (debug when
// LOOKOUT_DEBUG is set). The prefix names the component, e.g. "engine".
func NewConsole(prefix string) Logger {
	level := zapcore.InfoLevel
	if os.Getenv(DebugEnv) != "" {
		level = zapcore.DebugLevel
	}
	z := zap.New(newConsoleCore(os.Stderr, level))
	if prefix != "" {
		z = z.Named(prefix)
	}
	return &zapLogger{s: z.Sugar()}
}

// Named returns a child logger tagged with name when l is zap-backed,
// and l itself otherwise.
func Named(l Logger, name string) Logger {
	if zl, ok := l.(*zapLogger); ok {
		return &zapLogger{s: zl.s.Named(name)}
	}
	return l
}

func newConsoleCore(w io.Writer, level zapcore.Level) zapcore.Core {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	return zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), level)
}

func parseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return level, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func (l *zapLogger) Debug(format string, args ...interface{}) { l.s.Debugf(format, args...) }
func (l *zapLogger) Info(format string, args ...interface{})  { l.s.Infof(format, args...) }
func (l *zapLogger) Warn(format string, args ...interface{})  { l.s.Warnf(format, args...) }
func (l *zapLogger) Error(format string, args ...interface{}) { l.s.Errorf(format, args...) }

// noopLogger implements Logger but discards all messages.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(format string, args ...interface{}) {}
func (l *noopLogger) Info(format string, args ...interface{})  {}
func (l *noopLogger) Warn(format string, args ...interface{})  {}
func (l *noopLogger) Error(format string, args ...interface{}) {}

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures log messages for testing. Safe for concurrent use,
// since probes and the status server log from their own goroutines.
type BufferLogger struct {
	mu       sync.Mutex
	Messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{
		Messages: make([]LogMessage, 0),
	}
}

func (l *BufferLogger) add(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.add("debug", format, args...) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.add("info", format, args...) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.add("warn", format, args...) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.add("error", format, args...) }

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.Messages {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Contains reports whether any message at level contains substr.
func (l *BufferLogger) Contains(level, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.Messages {
		if m.Level == level && strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = l.Messages[:0]
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = NewConsole("")
)

// Default returns the package-level logger.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the package-level logger.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
