// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

// Package eventbus hands framed CoT events to downstream consumers over
// Watermill. The default build uses an in-process GoChannel; builds with
// -tags=nats publish to NATS JetStream when events.nats_url is set.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/takbridge/internal/cot"
	"github.com/tomtom215/takbridge/internal/logging"
	"github.com/tomtom215/takbridge/internal/metrics"
)

// Metadata keys set on every message.
const (
	MetadataConnection = "connection"
	MetadataType       = "cot_type"
	MetadataUID        = "cot_uid"
	MetadataClass      = "cot_class"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("eventbus: closed")

// Bus publishes CoT events to a single topic.
type Bus struct {
	pub   message.Publisher
	sub   message.Subscriber
	topic string

	mu     sync.RWMutex
	closed bool
}

func newLogger() watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logging.NewSlogLogger())
}

// NewGoChannel returns an in-process Bus. Messages published while no one
// is subscribed are dropped.
func NewGoChannel(topic string) *Bus {
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, newLogger())
	return &Bus{pub: ch, sub: ch, topic: topic}
}

// Topic returns the topic events are published to.
func (b *Bus) Topic() string {
	return b.topic
}

// NewMessage wraps ev in a Watermill message. The payload is the event XML.
func NewMessage(connection string, ev *cot.Event) (*message.Message, error) {
	text, err := ev.XML()
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), []byte(text))
	msg.Metadata.Set(MetadataConnection, connection)
	msg.Metadata.Set(MetadataType, ev.Type)
	msg.Metadata.Set(MetadataUID, ev.UID)
	msg.Metadata.Set(MetadataClass, ev.Class().String())
	return msg, nil
}

// DecodeEvent parses the event carried by msg.
func DecodeEvent(msg *message.Message) (*cot.Event, error) {
	return cot.Parse(string(msg.Payload))
}

// Publish sends ev on the bus, tagged with the stream connection it came from.
func (b *Bus) Publish(ctx context.Context, connection string, ev *cot.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	msg, err := NewMessage(connection, ev)
	if err != nil {
		metrics.RecordEventPublish(err)
		return err
	}
	msg.SetContext(ctx)

	err = b.pub.Publish(b.topic, msg)
	metrics.RecordEventPublish(err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.UID, err)
	}
	return nil
}

// Subscribe returns the message channel for the bus topic. Consumers must
// Ack each message.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	if b.sub == nil {
		return nil, errors.New("eventbus: subscriber not available")
	}
	return b.sub.Subscribe(ctx, b.topic)
}

// Close shuts down the publisher and subscriber. It is idempotent.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	err := b.pub.Close()
	if b.sub != nil && any(b.sub) != any(b.pub) {
		err = errors.Join(err, b.sub.Close())
	}
	return err
}
