// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package config

import (
	"errors"
	"fmt"

	"github.com/tomtom215/takbridge/internal/validation"
)

// Validate checks field constraints, then the cross-field rules that struct
// tags cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if err := c.validateAuthMode(); err != nil {
		return err
	}
	if err := c.validateStream(); err != nil {
		return err
	}
	return c.validateStore()
}

func (c *Config) validateAuthMode() error {
	switch c.TAK.AuthMode {
	case AuthModePassword:
		if c.TAK.Username == "" || c.TAK.Password == "" {
			return errors.New("TAK_USERNAME and TAK_PASSWORD are required for password auth")
		}
	case AuthModeToken:
		if c.TAK.Token == "" {
			return errors.New("TAK_TOKEN is required for token auth")
		}
	case AuthModeCertificate:
		if !c.TAK.HasCertificate() {
			return errors.New("TAK_CERT_FILE and TAK_KEY_FILE (or TAK_P12_FILE) are required for certificate auth")
		}
	default:
		return fmt.Errorf("unknown TAK_AUTH_MODE %q", c.TAK.AuthMode)
	}
	if c.TAK.CertFile != "" && c.TAK.P12File != "" {
		return errors.New("TAK_CERT_FILE and TAK_P12_FILE are mutually exclusive")
	}
	return nil
}

// The streaming socket only authenticates with a client certificate,
// whatever mode the management API uses.
func (c *Config) validateStream() error {
	if c.Stream.Enabled && !c.TAK.HasCertificate() {
		return errors.New("stream.enabled requires client certificate material (TAK_CERT_FILE/TAK_KEY_FILE or TAK_P12_FILE)")
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return errors.New("STORE_PATH is required unless STORE_IN_MEMORY is set")
	}
	return nil
}
