// Package logger provides leveled, structured JSON logging.
package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// =============================================================================
// Levels
// =============================================================================

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelFatal {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// =============================================================================
// Logger
// =============================================================================
//
// One JSON object per line. Bound fields (WithField, WithError) land at the
// top level of the object so log pipelines can filter on them without
// unnesting. Error and Fatal lines carry the caller's file:line.

type Logger struct {
	level   Level
	service string
	fields  map[string]any
}

// Config configures the shared logger.
type Config struct {
	Level   Level
	Output  io.Writer
	Service string
}

var (
	std     *Logger
	stdOut  io.Writer = os.Stdout
	writeMu sync.Mutex
	initOne sync.Once
)

func init() {
	std = &Logger{level: LevelInfo, service: "napoleon"}
}

// Init configures the shared logger. Later calls are ignored.
func Init(cfg Config) {
	initOne.Do(func() {
		if cfg.Output != nil {
			stdOut = cfg.Output
		}
		service := cfg.Service
		if service == "" {
			service = "napoleon"
		}
		std = &Logger{level: cfg.Level, service: service}
	})
}

// WithField returns a logger with one bound field.
func (l *Logger) WithField(key string, value any) *Logger {
	return l.WithFields(map[string]any{key: value})
}

// WithFields returns a logger with the given fields bound. The receiver is
// not mutated.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{level: l.level, service: l.service, fields: merged}
}

// WithError binds err under the "error" key. A nil err binds nothing.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithFields(map[string]any{"error": err.Error()})
}

func (l *Logger) Debug(format string, args ...any) { l.emit(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.emit(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.emit(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.emit(LevelError, format, args...) }

// Fatal logs and exits the process.
func (l *Logger) Fatal(format string, args ...any) {
	l.emit(LevelFatal, format, args...)
	os.Exit(1)
}

func (l *Logger) emit(level Level, format string, args ...any) {
	if level < l.level {
		return
	}

	event := make(map[string]any, len(l.fields)+5)
	for k, v := range l.fields {
		event[k] = v
	}
	event["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	event["level"] = level.String()
	event["service"] = l.service
	if len(args) > 0 {
		event["msg"] = fmt.Sprintf(format, args...)
	} else {
		event["msg"] = format
	}

	// emit sits two frames below the public method that was called.
	if level >= LevelError {
		if _, file, line, ok := runtime.Caller(2); ok {
			event["caller"] = fmt.Sprintf("%s:%d", trimPath(file), line)
		}
	}

	line, err := json.Marshal(event)
	if err != nil {
		line = []byte(fmt.Sprintf(`{"level":%q,"msg":"log marshal failed: %v"}`, level.String(), err))
	}

	writeMu.Lock()
	stdOut.Write(append(line, '\n'))
	writeMu.Unlock()
}

// trimPath keeps the last two path segments of the caller's file.
func trimPath(file string) string {
	seen := 0
	for i := len(file) - 1; i >= 0; i-- {
		if file[i] == '/' {
			seen++
			if seen == 2 {
				return file[i+1:]
			}
		}
	}
	return file
}

// =============================================================================
// Package-level wrappers around the shared logger
// =============================================================================

func WithField(key string, value any) *Logger  { return std.WithField(key, value) }
func WithFields(fields map[string]any) *Logger { return std.WithFields(fields) }
func WithError(err error) *Logger              { return std.WithError(err) }

func Debug(format string, args ...any) { std.emit(LevelDebug, format, args...) }
func Info(format string, args ...any)  { std.emit(LevelInfo, format, args...) }
func Warn(format string, args ...any)  { std.emit(LevelWarn, format, args...) }
func Error(format string, args ...any) { std.emit(LevelError, format, args...) }

func Fatal(format string, args ...any) {
	std.emit(LevelFatal, format, args...)
	os.Exit(1)
}
