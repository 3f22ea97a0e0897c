package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level is the severity of a log line
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the upper-case level name used in log lines
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel parses a level name such as "info" or "WARN"
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", name)
}

// Logger is a wrapper around the standard library logger
type Logger struct {
	*log.Logger
	component string
	level     Level
	now       func() time.Time
}

// New creates a new logger writing to stdout with the given component tag
func New(component string) *Logger {
	return NewWithWriter(os.Stdout, component, Global.minLevel())
}

// NewWithWriter creates a logger writing to w that drops lines below level
func NewWithWriter(w io.Writer, component string, level Level) *Logger {
	return &Logger{
		Logger:    log.New(w, "", 0),
		component: component,
		level:     level,
		now:       time.Now,
	}
}

// With returns a child logger sharing the output and level but tagged with component
func (l *Logger) With(component string) *Logger {
	return &Logger{
		Logger:    l.Logger,
		component: component,
		level:     l.level,
		now:       l.now,
	}
}

func (l *Logger) minLevel() Level {
	if l == nil {
		return LevelInfo
	}
	return l.level
}

// formatMessage formats a log message with timestamp and component
func (l *Logger) formatMessage(level Level, format string, v ...interface{}) string {
	timestamp := l.now().Format(time.RFC3339)
	message := fmt.Sprintf(format, v...)

	if l.component != "" {
		return fmt.Sprintf("[%s] [%s] [Component: %s] %s", timestamp, level, l.component, message)
	}

	return fmt.Sprintf("[%s] [%s] %s", timestamp, level, message)
}

func (l *Logger) output(level Level, format string, v ...interface{}) {
	if level < l.level {
		return
	}
	l.Logger.Println(l.formatMessage(level, format, v...))
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.output(LevelInfo, format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.output(LevelError, format, v...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.output(LevelDebug, format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.output(LevelWarn, format, v...)
}

// Global logger instance for application-wide logging
var Global = NewWithWriter(os.Stdout, "", LevelInfo)

// SetGlobal sets the global logger
func SetGlobal(logger *Logger) {
	Global = logger
}
