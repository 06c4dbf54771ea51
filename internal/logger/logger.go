package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level. Unknown values map to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// F is a shorthand for creating a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Config holds logger configuration
type Config struct {
	Level      Level  // Minimum log level
	FilePath   string // Path to log file, empty disables file output
	MaxSize    int64  // Max size in bytes before rotation
	MaxAge     int    // Max age in days
	MaxBackups int    // Max number of rotated files kept
	Console    bool   // Also write to stderr
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	logPath := ""
	if home != "" {
		logPath = filepath.Join(home, ".promptpicker", "logs", "promptpicker.log")
	}

	return Config{
		Level:      INFO,
		FilePath:   logPath,
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxAge:     7,
		MaxBackups: 5,
		Console:    false, // stderr would draw over the bar
	}
}

// Logger writes leveled entries to a log file and/or stderr.
// Loggers derived with WithFields share the parent's output.
type Logger struct {
	out    *output
	level  Level
	fields []Field
}

// output is the shared, rotatable sink behind a family of loggers.
type output struct {
	mu      sync.Mutex
	config  Config
	file    *os.File
	extra   io.Writer
	writers []io.Writer
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Init initializes the global logger
func Init(config Config) error {
	var err error
	once.Do(func() {
		globalLogger, err = New(config)
	})
	return err
}

// New creates a new logger instance
func New(config Config) (*Logger, error) {
	o := &output{config: config}

	if config.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		if err := o.openFile(); err != nil {
			return nil, err
		}
		if err := o.rotateIfNeeded(); err != nil {
			return nil, err
		}
	}
	o.resetWriters()

	return &Logger{out: o, level: config.Level}, nil
}

// NewWriter creates a logger that writes only to w. Used by tests and by
// components that want their own sink.
func NewWriter(w io.Writer, level Level) *Logger {
	o := &output{extra: w}
	o.resetWriters()
	return &Logger{out: o, level: level}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return NewWriter(io.Discard, ERROR+1)
}

func (o *output) openFile() error {
	file, err := os.OpenFile(o.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	o.file = file
	return nil
}

func (o *output) resetWriters() {
	o.writers = o.writers[:0]
	if o.file != nil {
		o.writers = append(o.writers, o.file)
	}
	if o.config.Console {
		o.writers = append(o.writers, os.Stderr)
	}
	if o.extra != nil {
		o.writers = append(o.writers, o.extra)
	}
}

// rotateIfNeeded must be called with o.mu held (or before the output is shared)
func (o *output) rotateIfNeeded() error {
	if o.file == nil {
		return nil
	}

	info, err := o.file.Stat()
	if err != nil {
		return err
	}

	tooBig := o.config.MaxSize > 0 && info.Size() >= o.config.MaxSize
	tooOld := o.config.MaxAge > 0 && time.Since(info.ModTime()) > time.Duration(o.config.MaxAge)*24*time.Hour
	if tooBig || tooOld {
		return o.rotate()
	}
	return nil
}

func (o *output) rotate() error {
	_ = o.file.Close()

	for i := o.config.MaxBackups - 1; i >= 1; i-- {
		_ = os.Rename(fmt.Sprintf("%s.%d", o.config.FilePath, i), fmt.Sprintf("%s.%d", o.config.FilePath, i+1))
	}

	if _, err := os.Stat(o.config.FilePath); err == nil {
		if err := os.Rename(o.config.FilePath, o.config.FilePath+".1"); err != nil {
			return err
		}
	}

	if err := o.openFile(); err != nil {
		return err
	}
	o.resetWriters()
	return nil
}

func (l *Logger) log(level Level, msg string, fields []Field) {
	if l == nil || level < l.level {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	caller := "???"
	if ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s: %s", time.Now().Format("2006-01-02 15:04:05.000"), level, caller, msg)
	if len(l.fields)+len(fields) > 0 {
		b.WriteString(" |")
		for _, f := range l.fields {
			fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
		}
		for _, f := range fields {
			fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
		}
	}
	b.WriteByte('\n')

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	_ = l.out.rotateIfNeeded()
	for _, w := range l.out.writers {
		_, _ = io.WriteString(w, b.String())
	}
}

// WithFields creates a new logger with preset fields
func (l *Logger) WithFields(fields ...Field) *Logger {
	if l == nil {
		return nil
	}
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{out: l.out, level: l.level, fields: merged}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) { l.log(DEBUG, msg, fields) }

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) { l.log(INFO, msg, fields) }

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) { l.log(WARN, msg, fields) }

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Field) { l.log(ERROR, msg, fields) }

// Close closes the underlying log file
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if l.out.file != nil {
		err := l.out.file.Close()
		l.out.file = nil
		l.out.resetWriters()
		return err
	}
	return nil
}

// Global logger functions

// Default returns the global logger, or a discarding logger before Init.
func Default() *Logger {
	if globalLogger != nil {
		return globalLogger
	}
	return Nop()
}

// Debug logs a debug message using the global logger
func Debug(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.log(DEBUG, msg, fields)
	}
}

// Info logs an info message using the global logger
func Info(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.log(INFO, msg, fields)
	}
}

// Warn logs a warning message using the global logger
func Warn(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.log(WARN, msg, fields)
	}
}

// Error logs an error message using the global logger
func Error(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.log(ERROR, msg, fields)
	}
}

// WithFields creates a new logger with preset fields using the global logger
func WithFields(fields ...Field) *Logger {
	return Default().WithFields(fields...)
}

// Close closes the global logger
func Close() error {
	if globalLogger != nil {
		return globalLogger.Close()
	}
	return nil
}
