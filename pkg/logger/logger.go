// Copyright 2025 The LanScan Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger provides JSON structured logging on top of zerolog.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// singleton holds the process-wide logger instance.
//
//nolint:gochecknoglobals // singleton pattern for logger state
var singleton zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	singleton = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Init (re)configures the process-wide logger from cfg.
func Init(cfg *Config) error {
	var output io.Writer = os.Stdout
	if cfg.Output == "stderr" {
		output = os.Stderr
	}

	level := zerolog.InfoLevel

	if cfg.Debug {
		level = zerolog.DebugLevel
	} else if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return err
		}

		level = parsed
	}

	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	singleton = zerolog.New(output).Level(level).With().Timestamp().Logger()

	return nil
}

// GetLogger returns the process-wide zerolog.Logger.
func GetLogger() zerolog.Logger { return singleton }

// New wraps an existing zerolog.Logger to satisfy the Logger interface,
// adding a "component" field so scanner subsystems are easy to filter on.
func New(component string) Logger {
	l := singleton.With().Str("component", component).Logger()
	return &wrappedLogger{l: l}
}

type wrappedLogger struct {
	l zerolog.Logger
}

func (w *wrappedLogger) Trace() *zerolog.Event { return w.l.Trace() }
func (w *wrappedLogger) Debug() *zerolog.Event { return w.l.Debug() }
func (w *wrappedLogger) Info() *zerolog.Event  { return w.l.Info() }
func (w *wrappedLogger) Warn() *zerolog.Event  { return w.l.Warn() }
func (w *wrappedLogger) Error() *zerolog.Event { return w.l.Error() }
func (w *wrappedLogger) Fatal() *zerolog.Event { return w.l.Fatal() }
func (w *wrappedLogger) Panic() *zerolog.Event { return w.l.Panic() }
func (w *wrappedLogger) With() zerolog.Context { return w.l.With() }

func (w *wrappedLogger) WithComponent(component string) zerolog.Logger {
	return w.l.With().Str("component", component).Logger()
}

func (w *wrappedLogger) WithFields(fields map[string]interface{}) zerolog.Logger {
	ctx := w.l.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}

	return ctx.Logger()
}

func (w *wrappedLogger) SetLevel(level zerolog.Level) { w.l = w.l.Level(level) }
func (w *wrappedLogger) SetDebug(debug bool) {
	if debug {
		w.SetLevel(zerolog.DebugLevel)
	} else {
		w.SetLevel(zerolog.InfoLevel)
	}
}
