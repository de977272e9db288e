package logger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	fieldRequestID = "request_id"
	fieldTxID      = "tx_id"
	fieldMilestone = "milestone"
	fieldSubSystem = "subsystem"
)

// Config configures the base Logger every Context logger is derived from.
type Config struct {
	// Level is one of "verbose", "debug", "info", "warn", "error".
	Level       string
	Development bool
}

var (
	baseLock sync.RWMutex
	base     *zap.Logger
	verbose  bool
)

// Setup replaces the base Logger. Contexts created before the call keep their Logger.
func Setup(config Config) error {
	var zc zap.Config
	if config.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	isVerbose := false
	switch strings.ToLower(config.Level) {
	case "verbose":
		isVerbose = true
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "", "info":
		zc.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	default:
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(config.Level)); err != nil {
			return fmt.Errorf("Invalid log level %q : %s", config.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}

	baseLock.Lock()
	base = logger
	verbose = isVerbose
	baseLock.Unlock()
	return nil
}

// Sync flushes the base Logger.
func Sync() {
	baseLock.RLock()
	defer baseLock.RUnlock()
	if base != nil {
		base.Sync()
	}
}

func baseLogger() (*zap.Logger, bool) {
	baseLock.RLock()
	defer baseLock.RUnlock()
	if base == nil {
		return zap.NewNop(), false
	}
	return base, verbose
}

// newLogger returns the base Logger with the request id of ctx.
func newLogger(ctx context.Context) *zap.Logger {
	logger, _ := baseLogger()
	return logger.With(zap.String(fieldRequestID, RequestIDFromContext(ctx)))
}

// NewLoggerFromContext returns the Logger of ctx, or a new one when ctx has none.
func NewLoggerFromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(KeyLogger).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return newLogger(ctx)
}

// ContextWithLogSubSystem returns a Context whose Logger includes the subsystem name.
func ContextWithLogSubSystem(ctx context.Context, subsystem string) context.Context {
	logger := NewLoggerFromContext(ctx).With(zap.String(fieldSubSystem, subsystem))
	return ContextWithLogger(ctx, logger)
}

// Verbose logs at debug level, only when the "verbose" level is configured.
func Verbose(ctx context.Context, format string, values ...interface{}) {
	if _, isVerbose := baseLogger(); !isVerbose {
		return
	}
	NewLoggerFromContext(ctx).Debug(strings.TrimSuffix(fmt.Sprintf(format, values...), "\n"))
}

// Debug logs at debug level.
func Debug(ctx context.Context, format string, values ...interface{}) {
	NewLoggerFromContext(ctx).Debug(strings.TrimSuffix(fmt.Sprintf(format, values...), "\n"))
}

func Info(ctx context.Context, format string, values ...interface{}) {
	NewLoggerFromContext(ctx).Info(strings.TrimSuffix(fmt.Sprintf(format, values...), "\n"))
}

func Warn(ctx context.Context, format string, values ...interface{}) {
	NewLoggerFromContext(ctx).Warn(strings.TrimSuffix(fmt.Sprintf(format, values...), "\n"))
}

func Error(ctx context.Context, format string, values ...interface{}) {
	NewLoggerFromContext(ctx).Error(strings.TrimSuffix(fmt.Sprintf(format, values...), "\n"))
}

// Elapsed logs the time since start. Use it with defer.
func Elapsed(ctx context.Context, start time.Time, label string) {
	NewLoggerFromContext(ctx).Debug(fmt.Sprintf("%s elapsed", label),
		zap.Duration("elapsed", time.Since(start)))
}
