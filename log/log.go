// Copyright (c) 2025 The Companion Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides leveled, structured logging built on log/slog.
package log

import (
	"context"
	"log/slog"
	"os"
)

// Level aliases slog levels plus a trace level below debug.
const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Logger is the structured logger used across packages.
type Logger interface {
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	With(ctx ...any) Logger
}

type logger struct {
	inner *slog.Logger
}

func (l *logger) Trace(msg string, ctx ...any) { l.inner.Log(context.Background(), LevelTrace, msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...any) { l.inner.Debug(msg, ctx...) }
func (l *logger) Info(msg string, ctx ...any)  { l.inner.Info(msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...any)  { l.inner.Warn(msg, ctx...) }
func (l *logger) Error(msg string, ctx ...any) { l.inner.Error(msg, ctx...) }

func (l *logger) With(ctx ...any) Logger {
	return &logger{inner: l.inner.With(ctx...)}
}

var (
	rootLevel = new(slog.LevelVar)
	root      Logger = &logger{inner: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: rootLevel}))}
)

// Root returns the root logger.
func Root() Logger {
	return root
}

// WithContext returns a child of the root logger carrying the given context.
func WithContext(ctx ...any) Logger {
	return root.With(ctx...)
}

// SetLevel adjusts the root log level.
func SetLevel(lvl slog.Level) {
	rootLevel.Set(lvl)
}

// FromVerbosity maps a CLI verbosity number (0..4 and up) onto a level.
func FromVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return LevelError
	case v == 1:
		return LevelWarn
	case v == 2:
		return LevelInfo
	case v == 3:
		return LevelDebug
	default:
		return LevelTrace
	}
}

// Debug logs on the root logger.
func Debug(msg string, ctx ...any) { root.Debug(msg, ctx...) }

// Info logs on the root logger.
func Info(msg string, ctx ...any) { root.Info(msg, ctx...) }

// Warn logs on the root logger.
func Warn(msg string, ctx ...any) { root.Warn(msg, ctx...) }

// Error logs on the root logger.
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }
