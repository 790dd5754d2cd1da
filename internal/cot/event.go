// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package cot

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reserved protocol types.
const (
	TypeConnectionAck = "t-x-c-t-r"
	TypeVersionInfo   = "t-x-takp-v"
	TypePing          = "t-x-c-t"
)

// Prologue precedes every element written to the stream socket.
const Prologue = `<?xml version="1.0" encoding="UTF-8"?>`

// TimeLayout is the timestamp format written on outbound events.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// ErrMalformed is returned when framed text does not decode as an <event>.
var ErrMalformed = errors.New("malformed cot event")

// Class partitions events into the two protocol-internal kinds and everything else.
type Class int

const (
	ClassEvent Class = iota
	ClassConnectionAck
	ClassVersionInfo
)

// String returns the metric label for the class.
func (c Class) String() string {
	switch c {
	case ClassConnectionAck:
		return "ack"
	case ClassVersionInfo:
		return "version"
	default:
		return "event"
	}
}

// Point is the CoT <point> element.
type Point struct {
	Lat float64 `xml:"lat,attr" json:"lat"`
	Lon float64 `xml:"lon,attr" json:"lon"`
	Hae float64 `xml:"hae,attr" json:"hae"`
	CE  float64 `xml:"ce,attr" json:"ce"`
	LE  float64 `xml:"le,attr" json:"le"`
}

// unknownPoint is the conventional "no fix" point.
var unknownPoint = Point{CE: 9999999.0, LE: 9999999.0}

// Event is one CoT element. Raw holds the exact framed text for inbound
// events; outbound events built with NewEvent have an empty Raw and are
// marshaled from their fields.
type Event struct {
	Raw string

	Version string
	Type    string
	UID     string
	How     string
	Time    time.Time
	Start   time.Time
	Stale   time.Time
	Point   Point

	Callsign      string
	Remarks       string
	ServerVersion string

	// Detail is the inner XML of <detail>, verbatim.
	Detail string
}

type wireEvent struct {
	XMLName xml.Name    `xml:"event"`
	Version string      `xml:"version,attr,omitempty"`
	UID     string      `xml:"uid,attr"`
	Type    string      `xml:"type,attr"`
	How     string      `xml:"how,attr,omitempty"`
	Time    string      `xml:"time,attr,omitempty"`
	Start   string      `xml:"start,attr,omitempty"`
	Stale   string      `xml:"stale,attr,omitempty"`
	Point   *Point      `xml:"point"`
	Detail  *wireDetail `xml:"detail"`
}

type wireDetail struct {
	Contact *struct {
		Callsign string `xml:"callsign,attr"`
	} `xml:"contact"`
	Remarks    *string `xml:"remarks"`
	TakControl *struct {
		VersionInfo *struct {
			ServerVersion string `xml:"serverVersion,attr"`
		} `xml:"TakServerVersionInfo"`
	} `xml:"TakControl"`
	Inner string `xml:",innerxml"`
}

// NewEvent builds an outbound event with fresh timestamps. An empty uid is
// replaced with a random UUID.
func NewEvent(typ, uid string, point Point, staleAfter time.Duration) *Event {
	if uid == "" {
		uid = uuid.NewString()
	}
	now := time.Now().UTC()
	return &Event{
		Version: "2.0",
		Type:    typ,
		UID:     uid,
		How:     "m-g",
		Time:    now,
		Start:   now,
		Stale:   now.Add(staleAfter),
		Point:   point,
	}
}

// Parse decodes one framed element.
func Parse(raw string) (*Event, error) {
	var w wireEvent
	if err := xml.Unmarshal([]byte(raw), &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	ev := fromWire(&w)
	ev.Raw = raw
	return ev, nil
}

func fromWire(w *wireEvent) *Event {
	ev := &Event{
		Version: w.Version,
		Type:    w.Type,
		UID:     w.UID,
		How:     w.How,
		Time:    parseTime(w.Time),
		Start:   parseTime(w.Start),
		Stale:   parseTime(w.Stale),
		Point:   unknownPoint,
	}
	if w.Point != nil {
		ev.Point = *w.Point
	}
	if d := w.Detail; d != nil {
		ev.Detail = d.Inner
		if d.Contact != nil {
			ev.Callsign = d.Contact.Callsign
		}
		if d.Remarks != nil {
			ev.Remarks = strings.TrimSpace(*d.Remarks)
		}
		if d.TakControl != nil && d.TakControl.VersionInfo != nil {
			ev.ServerVersion = d.TakControl.VersionInfo.ServerVersion
		}
	}
	return ev
}

// Unparseable timestamps read as the zero time.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// Class classifies the event by its type attribute.
func (e *Event) Class() Class {
	switch e.Type {
	case TypeConnectionAck:
		return ClassConnectionAck
	case TypeVersionInfo:
		return ClassVersionInfo
	default:
		return ClassEvent
	}
}

// XML returns the element text: Raw when the event came off the wire,
// otherwise a fresh encoding of the fields.
func (e *Event) XML() (string, error) {
	if e.Raw != "" {
		return e.Raw, nil
	}

	w := wireEvent{
		Version: e.Version,
		UID:     e.UID,
		Type:    e.Type,
		How:     e.How,
		Time:    formatTime(e.Time),
		Start:   formatTime(e.Start),
		Stale:   formatTime(e.Stale),
	}
	p := e.Point
	w.Point = &p

	// Fields that map into <detail> are emitted through the verbatim inner
	// XML so element order is preserved exactly.
	if inner := e.detailXML(); inner != "" {
		w.Detail = &wireDetail{Inner: inner}
	}

	out, err := xml.Marshal(&w)
	if err != nil {
		return "", fmt.Errorf("marshal cot event %s: %w", e.UID, err)
	}
	return string(out), nil
}

func (e *Event) detailXML() string {
	if e.Detail != "" {
		return e.Detail
	}
	var b strings.Builder
	if e.Callsign != "" {
		b.WriteString(`<contact callsign="`)
		_ = xml.EscapeText(&b, []byte(e.Callsign))
		b.WriteString(`"/>`)
	}
	if e.Remarks != "" {
		b.WriteString("<remarks>")
		_ = xml.EscapeText(&b, []byte(e.Remarks))
		b.WriteString("</remarks>")
	}
	return b.String()
}

// WireText returns the prologue-prefixed form written to the stream socket.
func (e *Event) WireText() (string, error) {
	body, err := e.XML()
	if err != nil {
		return "", err
	}
	return Prologue + body, nil
}

// Ping returns the keep-alive event sent when a stream enters handshaking.
func Ping() *Event {
	ev := NewEvent(TypePing, "takPing", unknownPoint, 20*time.Second)
	ev.How = "h-g-i-g-o"
	return ev
}
