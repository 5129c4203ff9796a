package common

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
	LogFatal
)

// DebugEnvVar enables debug output for every logger created after it is set
const DebugEnvVar = "STATCAN_PROXY_DEBUG"

var logLevelNames = map[LogLevel]string{
	LogDebug: "DEBUG",
	LogInfo:  "INFO",
	LogWarn:  "WARN",
	LogError: "ERROR",
	LogFatal: "FATAL",
}

// SafeLogger writes leveled, prefixed lines to stderr so stdout stays free for command output
type SafeLogger struct {
	mu     sync.Mutex
	prefix string
	level  LogLevel
	out    io.Writer
}

// NewSafeLogger creates a new safe logger with the given prefix
func NewSafeLogger(prefix string) *SafeLogger {
	level := LogInfo
	if os.Getenv(DebugEnvVar) == trueStr {
		level = LogDebug
	}
	return &SafeLogger{
		prefix: prefix,
		level:  level,
	}
}

// SetLevel sets the minimum log level
func (l *SafeLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// SetOutput redirects the logger. A nil writer restores stderr.
func (l *SafeLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

func (l *SafeLogger) log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	out := l.out
	if out == nil {
		out = os.Stderr
	}

	timestamp := time.Now().Format("2006/01/02 15:04:05")
	message := fmt.Sprintf(format, args...)

	fmt.Fprintf(out, "%s [%s] %s: %s\n", timestamp, logLevelNames[level], l.prefix, message)
}

// Debug logs a debug message
func (l *SafeLogger) Debug(format string, args ...interface{}) {
	l.log(LogDebug, format, args...)
}

// Info logs an info message
func (l *SafeLogger) Info(format string, args ...interface{}) {
	l.log(LogInfo, format, args...)
}

// Warn logs a warning message
func (l *SafeLogger) Warn(format string, args ...interface{}) {
	l.log(LogWarn, format, args...)
}

// Error logs an error message
func (l *SafeLogger) Error(format string, args ...interface{}) {
	l.log(LogError, format, args...)
}

// Fatal logs a fatal message and exits
func (l *SafeLogger) Fatal(format string, args ...interface{}) {
	l.log(LogFatal, format, args...)
	os.Exit(1)
}

// Global logger instances for convenience
var (
	ProxyLogger  = NewSafeLogger("Proxy")
	ClientLogger = NewSafeLogger("Client")
	CLILogger    = NewSafeLogger("CLI")
)

// SanitizeErrorForLogging flattens an error or provider body into a single bounded line
func SanitizeErrorForLogging(v interface{}) string {
	if v == nil {
		return ""
	}
	var s string
	switch t := v.(type) {
	case error:
		s = t.Error()
	case []byte:
		s = string(t)
	case string:
		s = t
	default:
		s = fmt.Sprintf("%v", t)
	}
	flat := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			r = ' '
		}
		flat = append(flat, r)
	}
	if len(flat) > maxLoggedErrorLen {
		return string(flat[:maxLoggedErrorLen]) + "..."
	}
	return string(flat)
}

const maxLoggedErrorLen = 200
