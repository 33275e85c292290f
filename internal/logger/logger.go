package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger is a leveled logger for trading engine activities. It writes
// to stdout and, when a log directory is configured, to a dated
// session log file.
type Logger struct {
	name    string
	logFile *os.File
	logger  *log.Logger
	mu      sync.Mutex
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo     LogLevel = "INFO"
	LogLevelWarning  LogLevel = "WARN"
	LogLevelError    LogLevel = "ERROR"
	LogLevelCritical LogLevel = "CRITICAL"
	LogLevelTrade    LogLevel = "TRADE"
	LogLevelStatus   LogLevel = "STATUS"
)

// New creates a console-only logger with the given component name
func New(name string) *Logger {
	return &Logger{
		name:   name,
		logger: log.New(os.Stdout, "", 0),
	}
}

// NewSession creates a logger that also appends to logs/<name>_<date>.log
func NewSession(name, logDir string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.log", name, time.Now().Format("2006-01-02"))
	logPath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		name:    name,
		logFile: file,
		logger:  log.New(io.MultiWriter(os.Stdout, file), "", 0),
	}
	l.Info("session started")
	return l, nil
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] [%s] [%s] %s", timestamp, level, l.name, message)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// Critical logs a critical message
func (l *Logger) Critical(format string, args ...interface{}) {
	l.Log(LogLevelCritical, format, args...)
}

// Trade logs a trading action
func (l *Logger) Trade(format string, args ...interface{}) {
	l.Log(LogLevelTrade, format, args...)
}

// Status logs engine status information
func (l *Logger) Status(format string, args ...interface{}) {
	l.Log(LogLevelStatus, format, args...)
}

// Close closes the session log file if one is open
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		return l.logFile.Close()
	}
	return nil
}
