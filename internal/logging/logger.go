// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration. The zero value logs JSON at info
// level to stderr with timestamps.
type Config struct {
	// Level is one of trace, debug, info, warn, error, fatal, panic or
	// disabled. Unknown values fall back to info.
	Level string

	// Format is json or console.
	Format string

	Caller      bool
	NoTimestamp bool

	// Service and Host are stamped on every line as "service" and
	// "tak_host" when set.
	Service string
	Host    string

	Output io.Writer
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

//nolint:gochecknoinits // logging works before Init is called
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.MessageFieldName = "message"
	log = build(Config{})
}

// Init reconfigures the global logger. Safe to call more than once.
func Init(cfg Config) {
	l := build(cfg)
	mu.Lock()
	defer mu.Unlock()
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	log = l
}

func build(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	c := zerolog.New(out).With()
	if !cfg.NoTimestamp {
		c = c.Timestamp()
	}
	if cfg.Caller {
		c = c.Caller()
	}
	if cfg.Service != "" {
		c = c.Str("service", cfg.Service)
	}
	if cfg.Host != "" {
		c = c.Str("tak_host", cfg.Host)
	}
	return c.Logger()
}

func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// SetLogger replaces the global logger.
//
//nolint:gocritic // zerolog.Logger is passed by value
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

func current() *zerolog.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	return &l
}

// With starts a child logger builder.
func With() zerolog.Context { return current().With() }

// WithConnection returns a child logger for one TAK Server connection.
func WithConnection(connection int64) zerolog.Logger {
	return With().Int64("connection", connection).Logger()
}

// WithStream returns a child logger for a CoT stream client, keyed by its
// id and address.
//
//	l := logging.WithStream(sc.ID(), addr)
//	l.Info().Msg("Stream connected")
func WithStream(id, addr string) zerolog.Logger {
	return With().Str("component", "stream").Str("stream", id).Str("addr", addr).Logger()
}

func Trace() *zerolog.Event { return current().Trace() }
func Debug() *zerolog.Event { return current().Debug() }
func Info() *zerolog.Event { return current().Info() }
func Warn() *zerolog.Event { return current().Warn() }
func Error() *zerolog.Event { return current().Error() }

// Fatal logs and then calls os.Exit(1).
func Fatal() *zerolog.Event { return current().Fatal() }

// Err starts an error message carrying err, or an info message when err
// is nil.
func Err(err error) *zerolog.Event { return current().Err(err) }

// SetLevelString updates the global level.
func SetLevelString(level string) {
	zerolog.SetGlobalLevel(parseLevel(level))
}

// NewTestLogger returns a JSON logger writing to w.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
