// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/takbridge/internal/cot"
	"github.com/tomtom215/takbridge/internal/logging"
	"github.com/tomtom215/takbridge/internal/takapi"
)

// StreamClient is the part of *stream.Client the service drives.
type StreamClient interface {
	ID() string
	Connect(ctx context.Context) error
	Reconnect(ctx context.Context) error
	Destroy()
	OnEvent(fn func(*cot.Event)) func()
	OnError(fn func(error)) func()
	OnEnd(fn func()) func()
}

// EventPublisher receives every event read from the stream.
type EventPublisher interface {
	Publish(ctx context.Context, connection string, ev *cot.Event) error
}

// Publishers fans one event out to several publishers. Every publisher
// sees the event; failures are joined.
type Publishers []EventPublisher

// Publish implements EventPublisher.
func (ps Publishers) Publish(ctx context.Context, connection string, ev *cot.Event) error {
	var errs []error
	for _, p := range ps {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, connection, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StreamService keeps a CoT stream connected. When the socket ends or
// fails it waits reconnectDelay and reconnects. Configuration errors stop
// the service for good.
type StreamService struct {
	client         StreamClient
	publisher      EventPublisher
	reconnectDelay time.Duration
}

// NewStreamService wraps client. publisher may be nil.
func NewStreamService(client StreamClient, publisher EventPublisher, reconnectDelay time.Duration) *StreamService {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	return &StreamService{client: client, publisher: publisher, reconnectDelay: reconnectDelay}
}

// Serve implements suture.Service.
func (s *StreamService) Serve(ctx context.Context) error {
	id := s.client.ID()
	done := make(chan error, 1)
	signal := func(err error) {
		select {
		case done <- err:
		default:
		}
	}

	unsubscribe := []func(){
		s.client.OnError(signal),
		s.client.OnEnd(func() { signal(io.EOF) }),
		s.client.OnEvent(func(ev *cot.Event) {
			if s.publisher == nil {
				return
			}
			if err := s.publisher.Publish(ctx, id, ev); err != nil {
				logging.Warn().Err(err).Str("connection", id).Str("uid", ev.UID).Msg("Publish CoT event")
			}
		}),
	}
	defer func() {
		for _, fn := range unsubscribe {
			fn()
		}
	}()

	for attempt := 0; ; attempt++ {
		// Drop anything left from the previous socket.
		select {
		case <-done:
		default:
		}

		var err error
		if attempt == 0 {
			err = s.client.Connect(ctx)
		} else {
			err = s.client.Reconnect(ctx)
		}
		if errors.Is(err, takapi.ErrConfiguration) {
			s.client.Destroy()
			return fmt.Errorf("%w: %w", suture.ErrDoNotRestart, err)
		}
		if err == nil {
			select {
			case err = <-done:
			case <-ctx.Done():
				s.client.Destroy()
				return ctx.Err()
			}
		}

		logging.Warn().Err(err).Str("connection", id).Dur("retry_in", s.reconnectDelay).Msg("TAK stream lost")
		select {
		case <-time.After(s.reconnectDelay):
		case <-ctx.Done():
			s.client.Destroy()
			return ctx.Err()
		}
	}
}

func (s *StreamService) String() string {
	return "stream-" + s.client.ID()
}
