// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package stream

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/takbridge/internal/cot"
	"github.com/tomtom215/takbridge/internal/logging"
	"github.com/tomtom215/takbridge/internal/metrics"
	"github.com/tomtom215/takbridge/internal/takapi"
)

var (
	// ErrNotConnected is returned by writes when no socket is open.
	ErrNotConnected = errors.New("stream: not connected")

	// ErrDestroyed is returned by every operation after Destroy.
	ErrDestroyed = errors.New("stream: client destroyed")
)

const readBufferSize = 64 * 1024

// Client is a CoT streaming connection to one TAK Server.
type Client struct {
	id          string
	addr        string
	cred        takapi.Credential
	readTimeout time.Duration
	dialTimeout time.Duration
	callsign    string
	log         zerolog.Logger

	// connMu guards conn and gen and serializes writes.
	connMu sync.Mutex
	conn   net.Conn
	gen    uint64
	wg     sync.WaitGroup

	state     atomic.Int32
	stateMu   sync.Mutex
	stateCh   chan struct{}
	destroyed atomic.Bool

	versionMu sync.RWMutex
	version   string

	events   registry[func(*cot.Event)]
	errors   registry[func(error)]
	timeouts registry[func()]
	ends     registry[func()]
}

// Option configures a Client.
type Option func(*Client)

// WithReadTimeout reports a timeout to OnTimeout subscribers whenever the
// socket is idle for d. Zero disables it.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Client) { c.readTimeout = d }
}

// WithDialTimeout bounds the TCP connect and TLS handshake.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) { c.dialTimeout = d }
}

// WithCallsign sets the contact callsign carried by the handshake ping.
func WithCallsign(cs string) Option {
	return func(c *Client) { c.callsign = cs }
}

// NewClient returns a disconnected client. id labels logs and metrics.
// The credential is checked on Connect; only certificate credentials can
// open a stream.
func NewClient(id, addr string, cred takapi.Credential, opts ...Option) *Client {
	c := &Client{
		id:          id,
		addr:        addr,
		cred:        cred,
		dialTimeout: 30 * time.Second,
		stateCh:     make(chan struct{}),
		log:         logging.WithStream(id, addr),
	}
	for _, opt := range opts {
		opt(c)
	}
	metrics.SetStreamState(id, int(StateDisconnected))
	return c
}

// ID returns the connection label.
func (c *Client) ID() string { return c.id }

// State returns the current lifecycle state.
func (c *Client) State() State { return State(c.state.Load()) }

// Version returns the Server version reported by the last version-info
// event, or "" if none arrived yet.
func (c *Client) Version() string {
	c.versionMu.RLock()
	defer c.versionMu.RUnlock()
	return c.version
}

func (c *Client) setState(s State) {
	c.stateMu.Lock()
	prev := State(c.state.Swap(int32(s)))
	if prev != s {
		close(c.stateCh)
		c.stateCh = make(chan struct{})
	}
	c.stateMu.Unlock()

	if prev != s {
		metrics.SetStreamState(c.id, int(s))
		c.log.Debug().Str("from", prev.String()).Str("to", s.String()).Msg("Stream state change")
	}
}

// WaitForState blocks until the client reaches want, a terminal state
// other than want, or ctx is done.
func (c *Client) WaitForState(ctx context.Context, want State) error {
	for {
		c.stateMu.Lock()
		cur := c.State()
		ch := c.stateCh
		c.stateMu.Unlock()

		switch {
		case cur == want:
			return nil
		case c.destroyed.Load():
			return ErrDestroyed
		case cur == StateClosed || cur == StateError:
			return fmt.Errorf("stream: connection %s is %s", c.id, cur)
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Connect dials the Server, completes the TLS handshake and sends one
// ping. It returns once the ping is written; use WaitForState to wait for
// the connection-ack.
func (c *Client) Connect(ctx context.Context) error {
	if c.destroyed.Load() {
		return ErrDestroyed
	}
	cert, ok := c.cred.(*takapi.CertificateCredential)
	if !ok {
		return fmt.Errorf("%w: streaming requires a client certificate, got %T", takapi.ErrConfiguration, c.cred)
	}
	tlsConfig, err := cert.TLSConfig()
	if err != nil {
		return err
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		return nil
	}

	c.setState(StateConnecting)
	c.log.Info().Msg("Connecting to TAK stream")

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: c.dialTimeout},
		Config:    tlsConfig,
	}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		c.setState(StateError)
		return fmt.Errorf("dial %s: %w", c.addr, err)
	}

	c.gen++
	c.conn = conn
	c.setState(StateHandshaking)

	ping := cot.Ping()
	ping.Callsign = c.callsign
	if err := c.writeLocked(ctx, ping); err != nil {
		_ = conn.Close()
		c.conn = nil
		c.setState(StateError)
		return fmt.Errorf("send ping: %w", err)
	}

	c.wg.Add(1)
	go c.readLoop(c.gen, conn)
	return nil
}

// Reconnect drops the current socket, if any, and connects again with the
// same credential.
func (c *Client) Reconnect(ctx context.Context) error {
	if c.destroyed.Load() {
		return ErrDestroyed
	}
	metrics.RecordStreamReconnect(c.id)
	c.closeConn()
	c.setState(StateDisconnected)
	return c.Connect(ctx)
}

// Destroy closes the socket and stops every further notification. It is
// safe to call from a handler.
func (c *Client) Destroy() {
	if c.destroyed.Swap(true) {
		return
	}
	c.closeConn()
	c.setState(StateClosed)
	c.log.Info().Msg("TAK stream destroyed")
}

// Wait blocks until the reader goroutine of every socket has exited.
func (c *Client) Wait() {
	c.wg.Wait()
}

func (c *Client) closeConn() {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return
	}
	c.gen++
	if err := c.conn.Close(); err != nil {
		c.log.Debug().Err(err).Msg("Close stream socket")
	}
	c.conn = nil
}

// current reports whether gen is still the live socket.
func (c *Client) current(gen uint64) bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.gen == gen && c.conn != nil
}

// release forgets conn if it is still the live socket.
func (c *Client) release(gen uint64) {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.gen == gen && c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) readLoop(gen uint64, conn net.Conn) {
	defer c.wg.Done()

	var acc cot.Accumulator
	buf := make([]byte, readBufferSize)
	for {
		if c.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		}
		n, err := conn.Read(buf)
		if n > 0 {
			metrics.RecordStreamRead(c.id, n)
			for _, raw := range acc.Feed(buf[:n]) {
				c.handleFrame(raw)
			}
		}
		if err == nil {
			continue
		}
		if !c.current(gen) || c.destroyed.Load() {
			return
		}

		var netErr net.Error
		switch {
		case errors.As(err, &netErr) && netErr.Timeout():
			metrics.RecordStreamNotification(c.id, "timeout")
			c.emitTimeout()
			continue
		case errors.Is(err, io.EOF):
			c.log.Info().Msg("TAK stream ended by server")
			c.release(gen)
			c.setState(StateClosed)
			metrics.RecordStreamNotification(c.id, "end")
			c.emitEnd()
		default:
			c.log.Warn().Err(err).Msg("TAK stream read error")
			c.release(gen)
			c.setState(StateError)
			metrics.RecordStreamNotification(c.id, "error")
			c.emitError(err)
		}
		return
	}
}

func (c *Client) handleFrame(raw string) {
	if c.destroyed.Load() {
		return
	}
	ev, err := cot.Parse(raw)
	if err != nil {
		metrics.RecordStreamEvent(c.id, "malformed")
		c.log.Warn().Err(err).Int("bytes", len(raw)).Msg("Dropping malformed CoT frame")
		return
	}

	class := ev.Class()
	metrics.RecordStreamEvent(c.id, class.String())

	switch class {
	case cot.ClassConnectionAck:
		if c.State() == StateHandshaking {
			c.setState(StateOpen)
			c.log.Info().Msg("TAK stream open")
		}
	case cot.ClassVersionInfo:
		c.versionMu.Lock()
		c.version = ev.ServerVersion
		c.versionMu.Unlock()
		c.log.Info().Str("version", ev.ServerVersion).Msg("TAK server version")
	default:
		c.emitEvent(ev)
	}
}

// Write sends events, each prefixed with the XML prologue, directly to
// the socket. There is no outbound queue.
func (c *Client) Write(ctx context.Context, events ...*cot.Event) error {
	if c.destroyed.Load() {
		return ErrDestroyed
	}
	c.connMu.Lock()
	defer c.connMu.Unlock()
	for _, ev := range events {
		if err := c.writeLocked(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// WriteRaw sends preformatted XML as-is.
func (c *Client) WriteRaw(ctx context.Context, xml string) error {
	if c.destroyed.Load() {
		return ErrDestroyed
	}
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.writeBytes(ctx, []byte(xml))
}

func (c *Client) writeLocked(ctx context.Context, ev *cot.Event) error {
	text, err := ev.WireText()
	if err != nil {
		return err
	}
	return c.writeBytes(ctx, []byte(text+"\n"))
}

func (c *Client) writeBytes(ctx context.Context, b []byte) error {
	if c.conn == nil {
		return ErrNotConnected
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
		defer func() { _ = c.conn.SetWriteDeadline(time.Time{}) }()
	}
	_, err := c.conn.Write(b)
	metrics.RecordStreamWrite(c.id, err)
	if err != nil {
		return fmt.Errorf("write cot: %w", err)
	}
	return nil
}
