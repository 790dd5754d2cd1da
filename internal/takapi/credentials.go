// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package takapi

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12" //nolint:staticcheck // TAK enrollment still issues legacy PKCS#12 bundles
)

// Credential is one of PasswordCredential, TokenCredential or
// CertificateCredential.
type Credential interface {
	credential()
}

// PasswordCredential is exchanged for an OAuth token.
type PasswordCredential struct {
	Username string
	Password string
}

// TokenCredential is a pre-issued access token.
type TokenCredential struct {
	Token string
}

// CertificateCredential is a PEM client certificate and private key.
type CertificateCredential struct {
	CertPEM []byte
	KeyPEM  []byte
}

func (PasswordCredential) credential()     {}
func (TokenCredential) credential()        {}
func (*CertificateCredential) credential() {}

// String keeps secrets out of logs.
func (p PasswordCredential) String() string {
	return fmt.Sprintf("password(%s)", p.Username)
}

// String keeps secrets out of logs.
func (TokenCredential) String() string { return "token([REDACTED])" }

// KeyPair parses the PEM material into a tls.Certificate.
func (c *CertificateCredential) KeyPair() (tls.Certificate, error) {
	if c == nil || len(c.CertPEM) == 0 || len(c.KeyPEM) == 0 {
		return tls.Certificate{}, fmt.Errorf("%w: certificate and key are required", ErrConfiguration)
	}
	pair, err := tls.X509KeyPair(c.CertPEM, c.KeyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: client key pair: %v", ErrConfiguration, err)
	}
	return pair, nil
}

// TLSConfig returns the mutual-TLS client configuration shared by the
// stream socket and the certificate strategy. The Server certificate is
// self-issued per deployment and is not verified.
func (c *CertificateCredential) TLSConfig() (*tls.Config, error) {
	pair, err := c.KeyPair()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates:       []tls.Certificate{pair},
		InsecureSkipVerify: true, //nolint:gosec // TAK Servers present per-deployment self-signed certificates
		MinVersion:         tls.VersionTLS12,
	}, nil
}

// LoadCertificateFiles reads a PEM certificate and key from disk.
func LoadCertificateFiles(certFile, keyFile string) (*CertificateCredential, error) {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	cred := &CertificateCredential{CertPEM: certPEM, KeyPEM: keyPEM}
	if _, err := cred.KeyPair(); err != nil {
		return nil, err
	}
	return cred, nil
}

// LoadPKCS12 converts a PKCS#12 bundle (the format TAK data packages ship
// client certificates in) to PEM.
func LoadPKCS12(data []byte, password string) (*CertificateCredential, error) {
	key, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("%w: decode pkcs12: %v", ErrConfiguration, err)
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal private key: %v", ErrConfiguration, err)
	}
	return &CertificateCredential{
		CertPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}),
		KeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
	}, nil
}

// LoadPKCS12File reads and converts a PKCS#12 bundle from disk.
func LoadPKCS12File(path, password string) (*CertificateCredential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pkcs12: %w", err)
	}
	return LoadPKCS12(data, password)
}
