// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package stream

import (
	"context"
	"sync"

	"github.com/tomtom215/takbridge/internal/cot"
)

type entry[F any] struct {
	id uint64
	fn F
}

// registry is a copy-on-write handler list. Handlers run in registration
// order, outside the lock, so a handler may unsubscribe itself.
type registry[F any] struct {
	mu      sync.RWMutex
	next    uint64
	entries []entry[F]
}

func (r *registry[F]) add(fn F) func() {
	r.mu.Lock()
	r.next++
	id := r.next
	r.entries = append(append([]entry[F](nil), r.entries...), entry[F]{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			kept := make([]entry[F], 0, len(r.entries))
			for _, e := range r.entries {
				if e.id != id {
					kept = append(kept, e)
				}
			}
			r.entries = kept
		})
	}
}

func (r *registry[F]) snapshot() []entry[F] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries
}

// OnEvent registers fn for every ordinary CoT event. The returned func
// unsubscribes.
func (c *Client) OnEvent(fn func(*cot.Event)) func() { return c.events.add(fn) }

// OnError registers fn for transport errors.
func (c *Client) OnError(fn func(error)) func() { return c.errors.add(fn) }

// OnTimeout registers fn for read timeouts. A timeout leaves the
// connection open.
func (c *Client) OnTimeout(fn func()) func() { return c.timeouts.add(fn) }

// OnEnd registers fn for end-of-stream from the Server.
func (c *Client) OnEnd(fn func()) func() { return c.ends.add(fn) }

// Events returns a channel of ordinary CoT events that is closed when ctx
// is done. Delivery blocks the reader, so a slow consumer slows the socket
// rather than dropping events.
func (c *Client) Events(ctx context.Context) <-chan *cot.Event {
	ch := make(chan *cot.Event, 64)

	var (
		mu     sync.Mutex
		closed bool
	)
	unsubscribe := c.OnEvent(func(ev *cot.Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	})

	go func() {
		<-ctx.Done()
		unsubscribe()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch
}

func (c *Client) emitEvent(ev *cot.Event) {
	for _, e := range c.events.snapshot() {
		if c.destroyed.Load() {
			return
		}
		e.fn(ev)
	}
}

func (c *Client) emitError(err error) {
	for _, e := range c.errors.snapshot() {
		if c.destroyed.Load() {
			return
		}
		e.fn(err)
	}
}

func (c *Client) emitTimeout() {
	for _, e := range c.timeouts.snapshot() {
		if c.destroyed.Load() {
			return
		}
		e.fn()
	}
}

func (c *Client) emitEnd() {
	for _, e := range c.ends.snapshot() {
		if c.destroyed.Load() {
			return
		}
		e.fn()
	}
}
