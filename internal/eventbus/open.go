// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

//go:build !nats

package eventbus

import (
	"github.com/tomtom215/takbridge/internal/config"
	"github.com/tomtom215/takbridge/internal/logging"
)

// Open returns the Bus for cfg. Without the nats build tag this is always
// an in-process GoChannel.
func Open(cfg config.EventsConfig) (*Bus, error) {
	if cfg.NATSURL != "" {
		logging.Warn().Msg("events.nats_url ignored: build with -tags=nats for JetStream")
	}
	return NewGoChannel(cfg.Topic), nil
}
