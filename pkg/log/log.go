// Package log is the structured logging layer used by every lsqlearn
// estimator.
//
// Estimators depend on the small Logger interface; the default
// implementation is backed by github.com/rs/zerolog and writes to standard
// error so standard output stays free for results and progress dots.
// Fields are passed as alternating key/value pairs using the keys defined
// in attributes.go:
//
//	logger := log.GetLoggerWithName("linear").With(log.ModelNameKey, "Lasso")
//	logger.Info("Training started", log.SamplesKey, n, log.FeaturesKey, d)
package log

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Level is a logging severity.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelDisabled
)

// Logger is the logging interface estimators depend on.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	// With returns a child logger that always carries fields.
	With(fields ...interface{}) Logger
}

// LoggerProvider hands out named loggers that share one sink.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}

// ToLogLevel parses a level name. Unknown names map to LevelInfo.
func ToLogLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "off", "disabled", "none":
		return LevelDisabled
	default:
		return LevelInfo
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelDisabled:
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

var (
	globalMu       sync.RWMutex
	globalZerolog  = newConsoleLogger(LevelInfo)
	globalProvider LoggerProvider = &zerologProvider{base: globalZerolog}
)

func newConsoleLogger(level Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true, TimeFormat: "15:04:05"}
	return zerolog.New(out).Level(level.zerolog()).With().Timestamp().Logger()
}

// SetupLogger reconfigures the global logger at the given level name.
func SetupLogger(level string) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalZerolog = newConsoleLogger(ToLogLevel(level))
	globalProvider = &zerologProvider{base: globalZerolog}
}

// SetProvider installs a custom provider, typically in tests.
func SetProvider(p LoggerProvider) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalProvider = p
}

// GetLogger returns the raw global zerolog logger for call sites that want
// zerolog's chained event API.
func GetLogger() *zerolog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	l := globalZerolog
	return &l
}

// GetLoggerWithName returns a named Logger from the global provider.
func GetLoggerWithName(name string) Logger {
	globalMu.RLock()
	p := globalProvider
	globalMu.RUnlock()
	return p.GetLoggerWithName(name)
}

// LogError logs err with its cockroachdb/errors stack trace attached.
func LogError(err error, msg string) {
	if err == nil {
		return
	}
	GetLogger().Error().Err(err).Str(StacktraceKey, fmt.Sprintf("%+v", err)).Msg(msg)
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &zerologLogger{l: zerolog.Nop()}
}
