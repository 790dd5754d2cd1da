// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package takapi

import (
	"regexp"
	"strings"
)

var guidPattern = regexp.MustCompile(`(?i)^\{?[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\}?$`)

// IsGUID reports whether s is an 8-4-4-4-12 hex GUID, optionally wrapped in
// braces. Braces must be balanced.
func IsGUID(s string) bool {
	if !guidPattern.MatchString(s) {
		return false
	}
	return strings.HasPrefix(s, "{") == strings.HasSuffix(s, "}")
}

// StripBraces removes the surrounding braces of a braced GUID. Any other
// string is returned unchanged, so IsGUID(s) == IsGUID(StripBraces(s)).
func StripBraces(s string) string {
	if strings.HasPrefix(s, "{") && IsGUID(s) {
		return s[1 : len(s)-1]
	}
	return s
}
