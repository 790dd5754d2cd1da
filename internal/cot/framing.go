// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package cot

import (
	"regexp"
)

var (
	// Control characters are stripped before matching, so "." never has to
	// cross a newline.
	pairedEvent      = regexp.MustCompile(`<event[\s>].*?</event>`)
	selfClosingEvent = regexp.MustCompile(`<event(?:\s[^>]*)?/>`)
)

// Accumulator frames a byte stream into whole <event> elements.
//
// Bytes are appended to an internal buffer; after each Feed the buffer is
// scanned for the first complete element, which is removed together with any
// bytes that precede it. Scanning repeats until nothing matches. Fragments
// that never complete stay buffered.
//
// An Accumulator is not safe for concurrent use; the stream client owns one
// per socket.
type Accumulator struct {
	buf []byte
}

// Feed appends chunk and returns every element completed by it, in stream order.
func (a *Accumulator) Feed(chunk []byte) []string {
	a.buf = stripControl(append(a.buf, chunk...))

	var out []string
	for {
		start, end, ok := nextEvent(a.buf)
		if !ok {
			break
		}
		out = append(out, string(a.buf[start:end]))
		a.buf = a.buf[end:]
	}

	if len(a.buf) == 0 {
		a.buf = nil
	}
	return out
}

// Pending returns the unframed remainder.
func (a *Accumulator) Pending() string {
	return string(a.buf)
}

// Reset discards any buffered bytes. Used when a socket is replaced.
func (a *Accumulator) Reset() {
	a.buf = nil
}

// nextEvent returns the earliest complete element. A self-closing tag wins a
// tie, so "<event/>...</event>" frames the short element first.
func nextEvent(buf []byte) (start, end int, ok bool) {
	paired := pairedEvent.FindIndex(buf)
	single := selfClosingEvent.FindIndex(buf)

	switch {
	case paired == nil && single == nil:
		return 0, 0, false
	case paired == nil:
		return single[0], single[1], true
	case single == nil:
		return paired[0], paired[1], true
	case single[0] <= paired[0]:
		return single[0], single[1], true
	default:
		return paired[0], paired[1], true
	}
}

// stripControl removes C0 controls, DEL and the two-byte UTF-8 encodings of
// the C1 controls (U+0080-U+009F) in place.
func stripControl(b []byte) []byte {
	out := b[:0]
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c < 0x20 || c == 0x7f:
			continue
		case c == 0xc2 && i+1 < len(b) && b[i+1] >= 0x80 && b[i+1] <= 0x9f:
			i++
			continue
		}
		out = append(out, c)
	}
	return out
}
