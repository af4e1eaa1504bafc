// Package logger provides package-level leveled logging for the whole
// process. It wraps a single zap logger so callers don't have to thread a
// logger through every constructor; the engine is a library embedded into a
// host process, and the host decides the sink via Init.
package logger

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu  sync.RWMutex
	log = zap.NewNop().Sugar()
)

// Init configures the process-wide logger. Safe to call more than once; the
// last call wins. Before Init, all logging is a no-op.
func Init(debug bool) error {
	config := zap.NewProductionConfig()
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	mu.Lock()
	log = l.Sugar()
	mu.Unlock()
	return nil
}

// Sync flushes buffered log entries. Call at process teardown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = log.Sync()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Debug(format string, args ...any) { get().Debugf(format, args...) }
func Info(format string, args ...any)  { get().Infof(format, args...) }
func Warn(format string, args ...any)  { get().Warnf(format, args...) }
func Error(format string, args ...any) { get().Errorf(format, args...) }

// Trace logs the duration of an operation. Usage: defer logger.Trace("op")()
func Trace(name string) func() {
	start := time.Now()
	return func() {
		get().Debugf("%s took %v", name, time.Since(start))
	}
}
