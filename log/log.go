// Package log is a thin structured logger over zerolog. It is initialized at
// the error level writing to stderr, so packages can log before Init is called.
package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime/debug"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	logTestWriterName = "log_test_writer"
)

var (
	log   zerolog.Logger
	mu    sync.RWMutex
	level = LogLevelError

	// logTestWriter is used by tests to capture the output when Init is
	// called with logTestWriterName as output.
	logTestWriter io.Writer

	// panicOnInvalidChars makes every log call panic if the message contains
	// invalid UTF-8, which usually means raw bytes were logged with %s.
	panicOnInvalidChars = os.Getenv("LOG_PANIC_ON_INVALIDCHARS") == "true"
)

func init() {
	Init(LogLevelError, "stderr", nil)
}

// invalidCharChecker is a zerolog hook that panics when the message is not
// valid UTF-8.
type invalidCharChecker struct{}

func (invalidCharChecker) Run(_ *zerolog.Event, _ zerolog.Level, msg string) {
	if panicOnInvalidChars && !utf8.ValidString(msg) {
		panic(fmt.Sprintf("log message with invalid chars: %q", msg))
	}
}

// errorLevelWriter forwards only warn and above to the wrapped writer.
type errorLevelWriter struct {
	io.Writer
}

func (w *errorLevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < zerolog.WarnLevel {
		return len(p), nil
	}
	return w.Write(p)
}

// Init configures the global logger. The level is one of debug, info, warn
// or error. The output is stdout, stderr or a file path. If errorOutput is not
// nil, warnings and errors are also written to it.
func Init(logLevel, output string, errorOutput io.Writer) {
	var out io.Writer
	switch output {
	case "stdout":
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339Nano}
	case "stderr":
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339Nano}
	case logTestWriterName:
		out = logTestWriter
	default:
		f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			panic(fmt.Sprintf("cannot create log output: %v", err))
		}
		out = f
	}
	if errorOutput != nil {
		out = zerolog.MultiLevelWriter(out, &errorLevelWriter{errorOutput})
	}
	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		return fmt.Sprintf("%s/%s:%d", path.Base(path.Dir(file)), path.Base(file), line)
	}

	mu.Lock()
	defer mu.Unlock()
	log = zerolog.New(out).With().Timestamp().Caller().Logger().Hook(invalidCharChecker{})
	switch strings.ToLower(logLevel) {
	case LogLevelDebug:
		log = log.Level(zerolog.DebugLevel)
	case LogLevelInfo:
		log = log.Level(zerolog.InfoLevel)
	case LogLevelWarn:
		log = log.Level(zerolog.WarnLevel)
	case LogLevelError:
		log = log.Level(zerolog.ErrorLevel)
	default:
		panic(fmt.Sprintf("invalid log level: %q", logLevel))
	}
	level = strings.ToLower(logLevel)
}

// Level returns the current log level.
func Level() string {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// Logger returns the underlying zerolog logger.
func Logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := log
	return &l
}

func logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Debug(args ...any) {
	l := logger()
	l.Debug().CallerSkipFrame(1).Msg(fmt.Sprint(args...))
}

func Info(args ...any) {
	l := logger()
	l.Info().CallerSkipFrame(1).Msg(fmt.Sprint(args...))
}

func Warn(args ...any) {
	l := logger()
	l.Warn().CallerSkipFrame(1).Msg(fmt.Sprint(args...))
}

func Error(args ...any) {
	l := logger()
	l.Error().CallerSkipFrame(1).Msg(fmt.Sprint(args...))
}

func Fatal(args ...any) {
	l := logger()
	l.Fatal().CallerSkipFrame(1).Msg(fmt.Sprint(args...) + "\n" + string(debug.Stack()))
}

func Debugf(template string, args ...any) {
	l := logger()
	l.Debug().CallerSkipFrame(1).Msgf(template, args...)
}

func Infof(template string, args ...any) {
	l := logger()
	l.Info().CallerSkipFrame(1).Msgf(template, args...)
}

func Warnf(template string, args ...any) {
	l := logger()
	l.Warn().CallerSkipFrame(1).Msgf(template, args...)
}

func Errorf(template string, args ...any) {
	l := logger()
	l.Error().CallerSkipFrame(1).Msgf(template, args...)
}

func Fatalf(template string, args ...any) {
	Fatal(fmt.Sprintf(template, args...))
}

// Debugw logs a message with key/value pairs, e.g.
// Debugw("wrapped", "family", f, "proofs", n).
func Debugw(msg string, keyvalues ...any) {
	l := logger()
	l.Debug().CallerSkipFrame(1).Fields(keyvalues).Msg(msg)
}

func Infow(msg string, keyvalues ...any) {
	l := logger()
	l.Info().CallerSkipFrame(1).Fields(keyvalues).Msg(msg)
}

func Warnw(msg string, keyvalues ...any) {
	l := logger()
	l.Warn().CallerSkipFrame(1).Fields(keyvalues).Msg(msg)
}

func Errorw(err error, msg string) {
	l := logger()
	l.Error().CallerSkipFrame(1).Err(err).Msg(msg)
}
