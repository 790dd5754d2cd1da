// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package stream

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/takbridge/internal/cot"
	"github.com/tomtom215/takbridge/internal/takapi"
)

const (
	versionEvent = `<event version="2.0" uid="takserver" type="t-x-takp-v" how="h-g-i-g-o" time="2026-01-01T00:00:00.000Z" start="2026-01-01T00:00:00.000Z" stale="2026-01-01T00:01:00.000Z"><point lat="0" lon="0" hae="0" ce="9999999" le="9999999"/><detail><TakControl><TakServerVersionInfo serverVersion="5.2-RELEASE-16"/></TakControl></detail></event>`
	ackEvent     = `<event version="2.0" uid="takserver" type="t-x-c-t-r" how="h-g-i-g-o" time="2026-01-01T00:00:00.000Z" start="2026-01-01T00:00:00.000Z" stale="2026-01-01T00:01:00.000Z"><point lat="0" lon="0" hae="0" ce="9999999" le="9999999"/></event>`
	alphaEvent   = `<event version="2.0" uid="ANDROID-1" type="a-f-G-U-C" how="m-g" time="2026-01-01T00:00:00.000Z" start="2026-01-01T00:00:00.000Z" stale="2026-01-01T00:05:00.000Z"><point lat="34.1" lon="-118.2" hae="10" ce="5" le="5"/><detail><contact callsign="ALPHA"/></detail></event>`
	bravoEvent   = `<event version="2.0" uid="ANDROID-2" type="a-f-G-U-C" how="m-g"/>`
)

func selfSigned(t *testing.T, cn string) (certPEM, keyPEM []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})
}

func clientCredential(t *testing.T) *takapi.CertificateCredential {
	t.Helper()
	certPEM, keyPEM := selfSigned(t, "bridge-01")
	return &takapi.CertificateCredential{CertPEM: certPEM, KeyPEM: keyPEM}
}

// testServer is a TLS listener that demands a client certificate and hands
// accepted connections to the test.
type testServer struct {
	ln    net.Listener
	conns chan *tls.Conn
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	certPEM, keyPEM := selfSigned(t, "tak-server")
	pair, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		t.Fatalf("server key pair: %v", err)
	}
	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: []tls.Certificate{pair},
		ClientAuth:   tls.RequireAnyClientCert,
		MinVersion:   tls.VersionTLS12,
	})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &testServer{ln: ln, conns: make(chan *tls.Conn, 4)}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			tlsConn := conn.(*tls.Conn)
			if err := tlsConn.Handshake(); err != nil {
				_ = conn.Close()
				continue
			}
			s.conns <- tlsConn
		}
	}()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

func (s *testServer) addr() string { return s.ln.Addr().String() }

func (s *testServer) accept(t *testing.T) *tls.Conn {
	t.Helper()
	select {
	case conn := <-s.conns:
		t.Cleanup(func() { _ = conn.Close() })
		return conn
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for client connection")
		return nil
	}
}

// readFrame reads one framed element sent by the client.
func readFrame(t *testing.T, conn net.Conn, acc *cot.Accumulator) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if frames := acc.Feed(buf[:n]); len(frames) > 0 {
			return frames[0]
		}
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
	}
}

func write(t *testing.T, conn net.Conn, chunks ...string) {
	t.Helper()
	for _, chunk := range chunks {
		if _, err := conn.Write([]byte(chunk)); err != nil {
			t.Fatalf("server write: %v", err)
		}
	}
}

type recorder struct {
	mu     sync.Mutex
	events []*cot.Event
	errs   []error
	got    chan struct{}
	ended  chan struct{}
	timed  chan struct{}
}

func newRecorder(c *Client) *recorder {
	r := &recorder{got: make(chan struct{}, 16), ended: make(chan struct{}, 4), timed: make(chan struct{}, 16)}
	c.OnEvent(func(ev *cot.Event) {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
		r.got <- struct{}{}
	})
	c.OnError(func(err error) {
		r.mu.Lock()
		r.errs = append(r.errs, err)
		r.mu.Unlock()
	})
	c.OnEnd(func() { r.ended <- struct{}{} })
	c.OnTimeout(func() {
		select {
		case r.timed <- struct{}{}:
		default:
		}
	})
	return r
}

func (r *recorder) wait(t *testing.T, ch chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func (r *recorder) uids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.UID)
	}
	return out
}

func waitState(t *testing.T, c *Client, want State) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.WaitForState(ctx, want); err != nil {
		t.Fatalf("waiting for %s (at %s): %v", want, c.State(), err)
	}
}

func TestConnect_RejectsNonCertificateCredentials(t *testing.T) {
	for _, cred := range []takapi.Credential{
		takapi.TokenCredential{Token: "abc"},
		takapi.PasswordCredential{Username: "a", Password: "b"},
		nil,
	} {
		c := NewClient("1", "127.0.0.1:1", cred)
		err := c.Connect(context.Background())
		if !errors.Is(err, takapi.ErrConfiguration) {
			t.Errorf("%T: expected ErrConfiguration, got %v", cred, err)
		}
		if c.State() != StateDisconnected {
			t.Errorf("%T: state changed to %s before dialing", cred, c.State())
		}
	}
}

func TestClient_HandshakeAndFraming(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient("1", srv.addr(), clientCredential(t), WithCallsign("BRIDGE-1"))
	defer c.Destroy()
	rec := newRecorder(c)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	conn := srv.accept(t)

	var acc cot.Accumulator
	ping, err := cot.Parse(readFrame(t, conn, &acc))
	if err != nil {
		t.Fatalf("parse ping: %v", err)
	}
	if ping.Type != cot.TypePing || ping.UID != "takPing" {
		t.Fatalf("first frame is not a ping: %s/%s", ping.Type, ping.UID)
	}
	if ping.Callsign != "BRIDGE-1" {
		t.Errorf("ping callsign = %q", ping.Callsign)
	}
	if c.State() != StateHandshaking {
		t.Fatalf("expected handshaking before ack, got %s", c.State())
	}

	write(t, conn, "junk"+versionEvent, ackEvent[:40])
	write(t, conn, ackEvent[40:])
	waitState(t, c, StateOpen)

	write(t, conn, alphaEvent[:50], alphaEvent[50:]+"<eve", bravoEvent[4:]+"\n")
	rec.wait(t, rec.got, "first event")
	rec.wait(t, rec.got, "second event")

	if got := strings.Join(rec.uids(), ","); got != "ANDROID-1,ANDROID-2" {
		t.Errorf("events out of order or missing: %s", got)
	}
	if c.Version() != "5.2-RELEASE-16" {
		t.Errorf("version: got %q", c.Version())
	}
}

func TestClient_MalformedFrameDropped(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient("1", srv.addr(), clientCredential(t))
	defer c.Destroy()
	rec := newRecorder(c)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	conn := srv.accept(t)
	write(t, conn, ackEvent, `<event uid="bad"><point></event>`, alphaEvent)

	rec.wait(t, rec.got, "event after malformed frame")
	if got := strings.Join(rec.uids(), ","); got != "ANDROID-1" {
		t.Errorf("expected only the well-formed event, got %s", got)
	}
	if c.State() != StateOpen {
		t.Errorf("malformed frame changed state to %s", c.State())
	}
}

func TestClient_EndOfStream(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient("1", srv.addr(), clientCredential(t))
	rec := newRecorder(c)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	conn := srv.accept(t)
	write(t, conn, ackEvent)
	waitState(t, c, StateOpen)

	_ = conn.Close()
	rec.wait(t, rec.ended, "end notification")
	c.Wait()
	if c.State() != StateClosed {
		t.Errorf("expected closed, got %s", c.State())
	}

	if err := c.Reconnect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	defer c.Destroy()
	conn2 := srv.accept(t)
	write(t, conn2, ackEvent, alphaEvent)
	waitState(t, c, StateOpen)
	rec.wait(t, rec.got, "event after reconnect")
}

func TestClient_DestroySuppressesNotifications(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient("1", srv.addr(), clientCredential(t), WithReadTimeout(20*time.Millisecond))
	rec := newRecorder(c)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	conn := srv.accept(t)
	write(t, conn, ackEvent)
	waitState(t, c, StateOpen)

	c.Destroy()
	c.Wait()
	_, _ = conn.Write([]byte(alphaEvent))
	_ = conn.Close()

	time.Sleep(100 * time.Millisecond)
	select {
	case <-rec.ended:
		t.Error("end notification after destroy")
	default:
	}
	if n := len(rec.uids()); n != 0 {
		t.Errorf("%d events delivered after destroy", n)
	}
	if c.State() != StateClosed {
		t.Errorf("expected closed, got %s", c.State())
	}
	if err := c.Connect(context.Background()); !errors.Is(err, ErrDestroyed) {
		t.Errorf("connect after destroy: %v", err)
	}
	if err := c.Write(context.Background(), cot.Ping()); !errors.Is(err, ErrDestroyed) {
		t.Errorf("write after destroy: %v", err)
	}
}

func TestClient_ReadTimeoutKeepsConnection(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient("1", srv.addr(), clientCredential(t), WithReadTimeout(30*time.Millisecond))
	defer c.Destroy()
	rec := newRecorder(c)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	conn := srv.accept(t)
	write(t, conn, ackEvent)
	waitState(t, c, StateOpen)

	rec.wait(t, rec.timed, "timeout notification")
	if c.State() != StateOpen {
		t.Fatalf("timeout changed state to %s", c.State())
	}
	write(t, conn, alphaEvent)
	rec.wait(t, rec.got, "event after timeout")
}

func TestClient_Write(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient("1", srv.addr(), clientCredential(t))
	defer c.Destroy()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	conn := srv.accept(t)
	var acc cot.Accumulator
	readFrame(t, conn, &acc) // ping

	ev := cot.NewEvent("a-f-G-U-C", "BRIDGE-1", cot.Point{Lat: 1, Lon: 2}, time.Minute)
	ev.Callsign = "BRIDGE"
	if err := c.Write(context.Background(), ev); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := cot.Parse(readFrame(t, conn, &acc))
	if err != nil {
		t.Fatalf("parse written event: %v", err)
	}
	if got.UID != "BRIDGE-1" || got.Callsign != "BRIDGE" {
		t.Errorf("unexpected event: %+v", got)
	}

	if err := c.WriteRaw(context.Background(), bravoEvent); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	if raw := readFrame(t, conn, &acc); raw != bravoEvent {
		t.Errorf("raw write altered: %s", raw)
	}
}

func TestClient_WriteBeforeConnect(t *testing.T) {
	c := NewClient("1", "127.0.0.1:1", clientCredential(t))
	if err := c.Write(context.Background(), cot.Ping()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestClient_EventsChannel(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient("1", srv.addr(), clientCredential(t))
	defer c.Destroy()

	ctx, cancel := context.WithCancel(context.Background())
	events := c.Events(ctx)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	conn := srv.accept(t)
	write(t, conn, ackEvent, alphaEvent, bravoEvent)

	for _, want := range []string{"ANDROID-1", "ANDROID-2"} {
		select {
		case ev := <-events:
			if ev.UID != want {
				t.Errorf("expected %s, got %s", want, ev.UID)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}

	cancel()
	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected channel to close after cancel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestUnsubscribe(t *testing.T) {
	c := NewClient("1", "127.0.0.1:1", nil)
	calls := 0
	unsubscribe := c.OnEvent(func(*cot.Event) { calls++ })
	c.emitEvent(&cot.Event{UID: "a"})
	unsubscribe()
	unsubscribe()
	c.emitEvent(&cot.Event{UID: "b"})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		StateDisconnected: "disconnected",
		StateConnecting:   "connecting",
		StateHandshaking:  "handshaking",
		StateOpen:         "open",
		StateClosed:       "closed",
		StateError:        "error",
		State(42):         "unknown",
	} {
		if s.String() != want {
			t.Errorf("%d: got %q want %q", s, s.String(), want)
		}
	}
}
