// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

/*
Package stream maintains the long-lived mutual-TLS CoT socket to a TAK Server.

A Client owns exactly one connection. Bytes read from the socket are framed
by a cot.Accumulator and handed to subscribers in the order they complete:

	c := stream.NewClient("1", endpoint.StreamAddr(), cred)
	unsubscribe := c.OnEvent(func(ev *cot.Event) { ... })
	defer unsubscribe()
	if err := c.Connect(ctx); err != nil { ... }

Lifecycle:

	Disconnected -> Connecting -> Handshaking -> Open -> Closed
	                                any state -> Error

Handshaking is entered once TLS is established; the client sends one ping
and waits for the Server's connection-ack (t-x-c-t-r) to become Open.
Version-info events (t-x-takp-v) update Version and are not delivered to
subscribers, nor is the ack.

Nothing here reconnects on its own. Errors, end-of-stream and read
timeouts are reported to the matching subscribers and the caller decides
whether to call Reconnect. Destroy is terminal: once called, no further
notifications reach subscribers.
*/
package stream
