// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package logging

import "strings"

// Redact masks a secret for logging, keeping a four character prefix for long values.
func Redact(secret string) string {
	secret = strings.TrimSpace(secret)
	switch {
	case secret == "":
		return ""
	case len(secret) <= 8:
		return "[REDACTED]"
	default:
		return secret[:4] + "...[REDACTED]"
	}
}

// RedactURL strips the password from user:password@ style URLs and masks
// password query parameters, as sent to the OAuth token endpoint.
func RedactURL(raw string) string {
	if at := strings.Index(raw, "@"); at > 0 {
		if scheme := strings.Index(raw, "://"); scheme >= 0 && scheme < at {
			userinfo := raw[scheme+3 : at]
			if colon := strings.Index(userinfo, ":"); colon >= 0 {
				raw = raw[:scheme+3] + userinfo[:colon] + ":[REDACTED]" + raw[at:]
			}
		}
	}
	if i := strings.Index(raw, "password="); i >= 0 {
		end := strings.IndexByte(raw[i:], '&')
		if end < 0 {
			return raw[:i] + "password=[REDACTED]"
		}
		return raw[:i] + "password=[REDACTED]" + raw[i+end:]
	}
	return raw
}
