// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

// Package logging provides centralized zerolog-based structured logging for TAKBridge.
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output format for production, console output for development
//   - Context-aware logging carrying correlation, connection and mission fields
//   - slog adapter for Suture v4 integration
//   - Redaction helpers for TAK credentials (tokens, passwords, private keys)
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("mission", name).Msg("Mission created")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Layer creation failed")
//
// # Configuration
//
// Environment Variables:
//
//	LOG_LEVEL   - Minimum log level: trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - Output format: json, console (default: json)
//	LOG_CALLER  - Include caller file:line: true, false (default: false)
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
package logging
