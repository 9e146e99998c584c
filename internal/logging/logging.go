// Package logging provides the leveled logger shared by the server, the
// CLI and the conversion packages. It writes through the standard library
// log package so output placement follows the process-wide configuration.
package logging

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
)

// Level is a logging verbosity level
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the lowercase level name
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel converts a configuration string into a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("invalid log level: %s", s)
	}
}

// Logger is a leveled logger writing through a *log.Logger
type Logger struct {
	mu    sync.RWMutex
	level Level
	out   *log.Logger
}

// New creates a Logger. A nil out logs through the standard logger.
func New(out *log.Logger, level Level) *Logger {
	if out == nil {
		out = log.Default()
	}
	return &Logger{out: out, level: level}
}

// NewWriter creates a Logger writing to w with the given flags
func NewWriter(w io.Writer, flags int, level Level) *Logger {
	return New(log.New(w, "", flags), level)
}

// Discard returns a Logger that drops everything
func Discard() *Logger {
	return NewWriter(io.Discard, 0, ErrorLevel+1)
}

// SetLevel changes the minimum level written
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// Level returns the current minimum level
func (l *Logger) Level() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// Enabled reports whether messages at level are written
func (l *Logger) Enabled(level Level) bool {
	return level >= l.Level()
}

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	_ = l.out.Output(3, "["+strings.ToUpper(level.String())+"] "+fmt.Sprintf(format, args...))
}

// StdLogger returns the underlying *log.Logger for libraries that take one
func (l *Logger) StdLogger() *log.Logger {
	return l.out
}

// Debugf logs at debug level
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logf(DebugLevel, format, args...)
}

// Infof logs at info level
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logf(InfoLevel, format, args...)
}

// Warnf logs at warn level
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logf(WarnLevel, format, args...)
}

// Errorf logs at error level
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logf(ErrorLevel, format, args...)
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(nil, InfoLevel)
)

// Default returns the process-wide logger
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger
func SetDefault(l *Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// OrDefault returns l, or the process-wide logger when l is nil
func OrDefault(l *Logger) *Logger {
	if l != nil {
		return l
	}
	return Default()
}
