// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package cot

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

type wireCollection struct {
	Events []wireEvent `xml:"event"`
}

// ParseCollection decodes a mission CoT snapshot. The Server answers with
// either a bare <event>, or a wrapper element (conventionally <events>)
// holding zero, one or many <event> children. Every shape yields a slice;
// an empty document or wrapper yields an empty one.
func ParseCollection(data []byte) ([]*Event, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var root *xml.StartElement
	for root == nil {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return []*Event{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			root = &se
		}
	}

	if root.Name.Local == "event" {
		var w wireEvent
		if err := dec.DecodeElement(&w, root); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return []*Event{fromWire(&w)}, nil
	}

	var coll wireCollection
	if err := dec.DecodeElement(&coll, root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	out := make([]*Event, 0, len(coll.Events))
	for i := range coll.Events {
		out = append(out, fromWire(&coll.Events[i]))
	}
	return out, nil
}
