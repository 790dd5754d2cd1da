// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

// Package cot handles Cursor-on-Target events at the level the stream client
// and mission directory need: framing raw socket text into whole <event>
// elements, reading the handful of attributes used for classification and
// feature conversion, and producing wire text for outbound writes.
//
// It is not a general CoT codec. The <detail> subtree is carried as opaque
// inner XML apart from the contact callsign, remarks and the TakControl
// version element.
//
// Framing:
//
//	var acc cot.Accumulator
//	for _, raw := range acc.Feed(chunk) {
//	    ev, err := cot.Parse(raw)
//	    ...
//	}
package cot
