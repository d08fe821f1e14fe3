// Package logging holds the process-wide zap logger. InitLogger is
// provided per build: JSON to a file by default, colored console plus file
// with the dev tag.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.RWMutex
	logger *zap.Logger
)

// GetLogger returns the global logger. Before InitLogger it is a no-op
// logger, so packages can log from init and tests stay quiet.
func GetLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return nop
	}
	return logger
}

var nop = zap.NewNop()

// SetLogger replaces the global logger.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// Sync flushes buffered entries.
func Sync() {
	_ = GetLogger().Sync()
}

func DebugLog(msg string, args ...interface{}) { GetLogger().Sugar().Debugf(msg, args...) }
func InfoLog(msg string, args ...interface{})  { GetLogger().Sugar().Infof(msg, args...) }
func WarnLog(msg string, args ...interface{})  { GetLogger().Sugar().Warnf(msg, args...) }
func ErrorLog(msg string, args ...interface{}) { GetLogger().Sugar().Errorf(msg, args...) }

// FatalLog logs and exits the process.
func FatalLog(msg string, args ...interface{}) { GetLogger().Sugar().Fatalf(msg, args...) }

// Info and Warn take structured fields.
func Info(msg string, fields ...zap.Field) { GetLogger().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field) { GetLogger().Warn(msg, fields...) }
