// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide (it caches struct
// metadata) and carries the TAK-specific tags:
//
//	cot_type  CoT type strings such as "a-f-G-U-C" or "t-x-c-t-r"
//	tak_uid   identifiers safe to use as CoT uid / layer uid / creatorUid
//
// Example:
//
//	type DataConnection struct {
//	    ID         int64  `validate:"min=1"`
//	    Name       string `validate:"required,max=255"`
//	}
//
//	if err := validation.ValidateStruct(&rec); err != nil {
//	    return fmt.Errorf("invalid data connection: %w", err)
//	}
package validation
