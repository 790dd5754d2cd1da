// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/takbridge/internal/config"
	"github.com/tomtom215/takbridge/internal/takapi"
)

func TestEndpoint(t *testing.T) {
	ep := Endpoint(&config.TAKConfig{Host: "tak.example.com", APIPort: 9443})
	if got := ep.APIURL().String(); got != "https://tak.example.com:9443" {
		t.Errorf("api url = %s", got)
	}
	if got := ep.WebTAKURL().String(); got != "https://tak.example.com:8446" {
		t.Errorf("webtak url = %s", got)
	}
	if got := ep.StreamAddr(); got != "tak.example.com:8089" {
		t.Errorf("stream addr = %s", got)
	}
}

func TestCredential(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.TAKConfig
		want    string
		wantErr bool
	}{
		{"password", config.TAKConfig{AuthMode: config.AuthModePassword, Username: "u", Password: "p"}, "takapi.PasswordCredential", false},
		{"token", config.TAKConfig{AuthMode: config.AuthModeToken, Token: "t"}, "takapi.TokenCredential", false},
		{"certificate without material", config.TAKConfig{AuthMode: config.AuthModeCertificate}, "", true},
		{"certificate missing file", config.TAKConfig{AuthMode: config.AuthModeCertificate, CertFile: "/nonexistent.pem", KeyFile: "/nonexistent.key"}, "", true},
		{"unknown", config.TAKConfig{AuthMode: "kerberos"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred, err := Credential(&tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %T", cred)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch cred.(type) {
			case takapi.PasswordCredential:
				if tt.want != "takapi.PasswordCredential" {
					t.Errorf("got password credential, want %s", tt.want)
				}
			case takapi.TokenCredential:
				if tt.want != "takapi.TokenCredential" {
					t.Errorf("got token credential, want %s", tt.want)
				}
			default:
				t.Errorf("unexpected credential %T", cred)
			}
		})
	}
}

func TestStreamRequiresCertificate(t *testing.T) {
	cfg := &config.Config{TAK: config.TAKConfig{Host: "tak.example.com", AuthMode: config.AuthModeToken, Token: "t"}}
	if _, err := Stream(cfg); !errors.Is(err, takapi.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestClientOptionsBreaker(t *testing.T) {
	cfg := &config.TAKConfig{Host: "tak.example.com", AuthMode: config.AuthModeToken, Token: "t", CircuitBreaker: true}
	c, err := takapi.New(Endpoint(cfg), takapi.TokenCredential{Token: "t"}, ClientOptions(cfg)...)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.BreakerState(); got != "closed" {
		t.Errorf("breaker = %q, want closed", got)
	}

	cfg.CircuitBreaker = false
	c, err = takapi.New(Endpoint(cfg), takapi.TokenCredential{Token: "t"}, ClientOptions(cfg)...)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.BreakerState(); got != "disabled" {
		t.Errorf("breaker = %q, want disabled", got)
	}
}

type subscriberMap map[int64]string

func (m subscriberMap) SubscriberUID(_ context.Context, connection int64) (string, error) {
	return m[connection], nil
}

func (m subscriberMap) SetSubscriberUID(_ context.Context, connection int64, uid string) error {
	m[connection] = uid
	return nil
}

func TestRegisterSubscriber(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		uid      string
		want     string
	}{
		{"default fills empty slot", "", "", "connection-4"},
		{"default keeps operator uid", "ANDROID-1", "", "ANDROID-1"},
		{"configured uid wins", "ANDROID-1", " BRIDGE-UID ", "BRIDGE-UID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := subscriberMap{}
			if tt.existing != "" {
				db[4] = tt.existing
			}
			cfg := &config.Config{TAK: config.TAKConfig{ConnectionID: 4}, Stream: config.StreamConfig{UID: tt.uid}}

			got, err := RegisterSubscriber(context.Background(), db, cfg)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want || db[4] != tt.want {
				t.Errorf("uid = %q, stored %q, want %q", got, db[4], tt.want)
			}
		})
	}
}
