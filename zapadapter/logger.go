// Package zapadapter bridges go.uber.org/zap to the dependency-free logging
// interfaces used across the engine (editsession.Logger and the storage
// engines' Logger). The engine itself never imports zap; applications opt in
// by constructing this adapter and passing it through the options.
package zapadapter

import (
	"context"

	"go.uber.org/zap"
)

// Logger adapts a zap.SugaredLogger to the engine's Logger and
// ContextualLogger interfaces.
type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a Logger from an existing zap logger.
func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{sugar: logger.Sugar()}
}

// NewDevelopmentLogger creates a Logger backed by zap's development config.
func NewDevelopmentLogger() (*Logger, error) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}

	return NewLogger(logger), nil
}

// NewProductionLogger creates a Logger backed by zap's production config.
func NewProductionLogger() (*Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	return NewLogger(logger), nil
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

// Debug logs a message at debug level with key-value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

// Info logs a message at info level with key-value pairs.
func (l *Logger) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

// Warn logs a message at warn level with key-value pairs.
func (l *Logger) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

// Error logs a message at error level with key-value pairs.
func (l *Logger) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

// DebugContext logs at debug level; the context is accepted for interface
// compatibility and trace-correlating wrappers.
func (l *Logger) DebugContext(_ context.Context, msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

// InfoContext logs at info level.
func (l *Logger) InfoContext(_ context.Context, msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

// WarnContext logs at warn level.
func (l *Logger) WarnContext(_ context.Context, msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

// ErrorContext logs at error level.
func (l *Logger) ErrorContext(_ context.Context, msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}
