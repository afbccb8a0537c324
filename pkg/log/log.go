// Copyright 2025 The OpenFIB Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log provides a key-value logger backed by zap. The package-level
// root logger is configured once via Setup and shared by all components
// that do not receive an explicit logger.
package log

import (
	"fmt"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/openfib/fibsync/pkg/private/serrors"
)

// Logger is the logging interface handed to components. Key-value context
// is passed as alternating keys and values, keys must be strings.
type Logger interface {
	New(ctx ...any) Logger
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Enabled(lvl Level) bool
}

// Level is the log level.
type Level = zapcore.Level

// The supported log levels.
const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelError = zapcore.ErrorLevel
)

// Config configures the root logger.
type Config struct {
	// Level is one of "debug", "info" or "error". Empty defaults to info.
	Level string `toml:"level,omitempty"`
	// Format is "human" or "json". Empty defaults to human.
	Format string `toml:"format,omitempty"`
}

var root = newLogger(zap.NewNop())

// Setup initializes the root logger. It must be called before the first
// logging call; calling it again reconfigures the root logger.
func Setup(cfg Config) error {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}
	zCfg := zap.NewProductionConfig()
	zCfg.Level = zap.NewAtomicLevelAt(lvl)
	zCfg.DisableStacktrace = true
	switch cfg.Format {
	case "", "human":
		zCfg.Encoding = "console"
		zCfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	case "json":
		zCfg.Encoding = "json"
	default:
		return serrors.New("unsupported log format", "format", cfg.Format)
	}
	l, err := zCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return serrors.Wrap("creating logger", err)
	}
	root = newLogger(l)
	return nil
}

// Root returns the root logger. It is never nil.
func Root() Logger {
	return root
}

// New returns a child of the root logger with additional context attached.
func New(ctx ...any) Logger {
	return root.New(ctx...)
}

// Debug logs at debug level on the root logger.
func Debug(msg string, ctx ...any) { root.log(LevelDebug, msg, ctx) }

// Info logs at info level on the root logger.
func Info(msg string, ctx ...any) { root.log(LevelInfo, msg, ctx) }

// Error logs at error level on the root logger.
func Error(msg string, ctx ...any) { root.log(LevelError, msg, ctx) }

// Discard returns a logger that drops everything. Useful in tests.
func Discard() Logger {
	return newLogger(zap.NewNop())
}

// HandlePanic catches a panic, logs it with a stack trace and re-raises it.
// Deferred at the top of every goroutine so panics are never silent.
func HandlePanic() {
	if msg := recover(); msg != nil {
		Error("Panic", "msg", msg, "stack", string(debug.Stack()))
		panic(msg)
	}
}

func parseLevel(lvl string) (Level, error) {
	switch strings.ToLower(lvl) {
	case "", "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, serrors.New("unknown log level", "level", lvl)
	}
}

type logger struct {
	logger *zap.Logger
}

func newLogger(l *zap.Logger) *logger {
	return &logger{logger: l}
}

func (l *logger) New(ctx ...any) Logger {
	return newLogger(l.logger.With(toFields(ctx)...))
}

func (l *logger) Debug(msg string, ctx ...any) { l.log(LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.log(LevelInfo, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.log(LevelError, msg, ctx) }

func (l *logger) Enabled(lvl Level) bool {
	return l.logger.Core().Enabled(lvl)
}

func (l *logger) log(lvl Level, msg string, ctx []any) {
	if ce := l.logger.Check(lvl, msg); ce != nil {
		ce.Write(toFields(ctx)...)
	}
}

func toFields(ctx []any) []zap.Field {
	if len(ctx)%2 != 0 {
		ctx = append(ctx, "unknown")
	}
	fields := make([]zap.Field, 0, len(ctx)/2)
	for i := 0; i < len(ctx)-1; i += 2 {
		fields = append(fields, zap.Any(fmt.Sprint(ctx[i]), ctx[i+1]))
	}
	return fields
}
