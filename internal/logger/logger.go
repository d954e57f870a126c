// Package logger provides structured logging using Zap.
package logger

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	sugar atomic.Pointer[zap.SugaredLogger]
	once  sync.Once
)

// Init initializes the global logger for the given environment.
// "production" uses the JSON encoder at info level, "test" discards
// everything, and any other value uses the development console encoder.
func Init(env string) {
	once.Do(func() {
		var base *zap.Logger
		var err error

		switch env {
		case "production":
			base, err = zap.NewProduction()
		case "test":
			base = zap.NewNop()
		default:
			base, err = zap.NewDevelopment()
		}

		if err != nil {
			base = zap.NewNop()
		}

		sugar.Store(base.Sugar())
	})
}

// Get returns the global sugared logger.
// If Init has not been called, it initializes a development logger.
func Get() *zap.SugaredLogger {
	if l := sugar.Load(); l != nil {
		return l
	}
	Init("development")
	return sugar.Load()
}

// Replace swaps the global logger and returns a func restoring the previous one.
func Replace(l *zap.SugaredLogger) func() {
	prev := Get()
	sugar.Store(l)
	return func() { sugar.Store(prev) }
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync() {
	if l := sugar.Load(); l != nil {
		_ = l.Sync()
	}
}
