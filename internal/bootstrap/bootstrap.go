// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

// Package bootstrap turns configuration into the TAK clients shared by
// the server and takctl.
package bootstrap

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/takbridge/internal/config"
	"github.com/tomtom215/takbridge/internal/logging"
	"github.com/tomtom215/takbridge/internal/stream"
	"github.com/tomtom215/takbridge/internal/takapi"
)

// Endpoint builds the Server endpoint from the tak section.
func Endpoint(cfg *config.TAKConfig) takapi.Endpoint {
	ep := takapi.NewEndpoint(cfg.Host)
	if cfg.APIPort != 0 {
		ep.APIPort = cfg.APIPort
	}
	if cfg.WebTAKPort != 0 {
		ep.WebTAKPort = cfg.WebTAKPort
	}
	if cfg.StreamPort != 0 {
		ep.StreamPort = cfg.StreamPort
	}
	return ep
}

// Certificate loads the configured client certificate from PEM files or a
// PKCS#12 bundle.
func Certificate(cfg *config.TAKConfig) (*takapi.CertificateCredential, error) {
	switch {
	case cfg.P12File != "":
		return takapi.LoadPKCS12File(cfg.P12File, cfg.P12Password)
	case cfg.CertFile != "" && cfg.KeyFile != "":
		return takapi.LoadCertificateFiles(cfg.CertFile, cfg.KeyFile)
	default:
		return nil, fmt.Errorf("%w: no client certificate configured", takapi.ErrConfiguration)
	}
}

// Credential returns the management API credential for cfg.AuthMode.
func Credential(cfg *config.TAKConfig) (takapi.Credential, error) {
	switch cfg.AuthMode {
	case config.AuthModePassword:
		return takapi.PasswordCredential{Username: cfg.Username, Password: cfg.Password}, nil
	case config.AuthModeToken:
		return takapi.TokenCredential{Token: cfg.Token}, nil
	case config.AuthModeCertificate:
		cert, err := Certificate(cfg)
		if err != nil {
			return nil, err
		}
		return cert, nil
	default:
		return nil, fmt.Errorf("%w: unknown auth mode %q", takapi.ErrConfiguration, cfg.AuthMode)
	}
}

// ClientOptions maps the tak section onto Management Client options.
func ClientOptions(cfg *config.TAKConfig) []takapi.Option {
	opts := []takapi.Option{takapi.WithRateLimit(cfg.RequestsPerSecond, cfg.Burst)}
	if cfg.Timeout > 0 {
		opts = append(opts, takapi.WithTimeout(cfg.Timeout))
	}
	if cfg.CircuitBreaker {
		opts = append(opts, takapi.WithCircuitBreaker("tak-"+cfg.Host))
	}
	return opts
}

// Client builds the Management Client and runs its auth exchange.
func Client(ctx context.Context, cfg *config.TAKConfig) (*takapi.Client, error) {
	cred, err := Credential(cfg)
	if err != nil {
		return nil, err
	}
	c, err := takapi.Connect(ctx, Endpoint(cfg), cred, ClientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Host, err)
	}
	logging.Info().
		Str("host", cfg.Host).
		Str("auth_mode", cfg.AuthMode).
		Str("api", c.Endpoint().APIURL().String()).
		Msg("TAK management client ready")
	return c, nil
}

// Stream builds the CoT stream client. The stream always authenticates
// with the client certificate, whatever the API auth mode is.
func Stream(cfg *config.Config) (*stream.Client, error) {
	cert, err := Certificate(&cfg.TAK)
	if err != nil {
		return nil, err
	}
	opts := []stream.Option{stream.WithReadTimeout(cfg.Stream.ReadTimeout)}
	if cfg.Stream.Callsign != "" {
		opts = append(opts, stream.WithCallsign(cfg.Stream.Callsign))
	}
	id := strconv.FormatInt(cfg.TAK.ConnectionID, 10)
	return stream.NewClient(id, Endpoint(&cfg.TAK).StreamAddr(), cert, opts...), nil
}

// SubscriberUID is the client UID the stream connection is known by.
func SubscriberUID(cfg *config.Config) string {
	if uid := strings.TrimSpace(cfg.Stream.UID); uid != "" {
		return uid
	}
	return "connection-" + strconv.FormatInt(cfg.TAK.ConnectionID, 10)
}

// SubscriberStore persists the subscriber UID per connection.
type SubscriberStore interface {
	SubscriberUID(ctx context.Context, connection int64) (string, error)
	SetSubscriberUID(ctx context.Context, connection int64, uid string) error
}

// RegisterSubscriber records the stream UID for the configured connection
// so created Missions get subscribed. A configured stream.uid always wins;
// the default only fills an empty slot and leaves a UID set through takctl
// alone.
func RegisterSubscriber(ctx context.Context, db SubscriberStore, cfg *config.Config) (string, error) {
	connection := cfg.TAK.ConnectionID
	if strings.TrimSpace(cfg.Stream.UID) == "" {
		current, err := db.SubscriberUID(ctx, connection)
		if err != nil {
			return "", fmt.Errorf("read subscriber uid: %w", err)
		}
		if current != "" {
			return current, nil
		}
	}
	uid := SubscriberUID(cfg)
	if err := db.SetSubscriberUID(ctx, connection, uid); err != nil {
		return "", fmt.Errorf("save subscriber uid: %w", err)
	}
	l := logging.WithConnection(connection)
	l.Info().Str("uid", uid).Msg("Registered stream subscriber UID")
	return uid, nil
}
