// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	connectionKey    contextKey = "connection"
	missionKey       contextKey = "mission"
	loggerKey        contextKey = "logger"
)

// GenerateCorrelationID creates a new unique correlation ID.
// Returns the first 8 characters of a UUID for readability.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

// ContextWithCorrelationID returns a new context with the given correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// ContextWithNewCorrelationID returns a context with a newly generated correlation ID.
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext retrieves the correlation ID from context.
// Returns empty string if not present.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithConnection tags the context with a TAK connection id.
func ContextWithConnection(ctx context.Context, connection int64) context.Context {
	return context.WithValue(ctx, connectionKey, connection)
}

// ConnectionFromContext returns the connection id and whether one was set.
func ConnectionFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(connectionKey).(int64)
	return id, ok
}

// ContextWithMission tags the context with a mission name.
func ContextWithMission(ctx context.Context, mission string) context.Context {
	return context.WithValue(ctx, missionKey, mission)
}

// MissionFromContext returns the mission name, or empty string.
func MissionFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(missionKey).(string); ok {
		return name
	}
	return ""
}

// ContextWithLogger stores a logger in the context.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext retrieves a logger from context.
// Returns the global logger if no logger is stored in context.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return Logger()
}

// Ctx returns a logger with context values (correlation_id, connection, mission) added.
//
//	logging.Ctx(ctx).Info().Msg("Reconciling data connection")
//	// Output: {"level":"info","correlation_id":"abc12345","connection":3,"mission":"Wildfire-Ops",...}
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := CtxWith(ctx).Logger()
	return &logger
}

// CtxWith returns a logger context builder with context values pre-populated.
//
//	logger := logging.CtxWith(ctx).Str("layer", uid).Logger()
func CtxWith(ctx context.Context) zerolog.Context {
	logger := LoggerFromContext(ctx)
	logCtx := logger.With()

	if correlationID := CorrelationIDFromContext(ctx); correlationID != "" {
		logCtx = logCtx.Str("correlation_id", correlationID)
	}
	if connection, ok := ConnectionFromContext(ctx); ok {
		logCtx = logCtx.Int64("connection", connection)
	}
	if mission := MissionFromContext(ctx); mission != "" {
		logCtx = logCtx.Str("mission", mission)
	}

	return logCtx
}

// CtxErr starts an error level message with context fields and the error.
func CtxErr(ctx context.Context, err error) *zerolog.Event {
	return Ctx(ctx).Err(err)
}

// WithComponent creates a child logger with a component field.
//
//	streamLogger := logging.WithComponent("stream")
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}
