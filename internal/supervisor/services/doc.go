// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

// Package services adapts TAKBridge components to suture.Service.
//
// StreamService keeps one CoT stream connected and forwards its events to
// the event bus. ReconcileService runs the Data-Mission reconciler on a
// schedule and on demand. HTTPServerService runs the status server.
package services
