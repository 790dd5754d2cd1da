// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package takapi

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

const rsaKeyBits = 2048

// Credentials issues client certificates through the Server's enrollment
// endpoints.
type Credentials struct {
	c *Client
}

// NameEntry is one subject component the Server requires in a CSR.
type NameEntry struct {
	Name  string
	Value string
}

// CertificateConfig is the Server's CSR template.
type CertificateConfig struct {
	NameEntries []NameEntry
}

// Organization returns the values of all O entries.
func (c *CertificateConfig) Organization() []string { return c.values("O") }

// OrganizationalUnit returns the values of all OU entries.
func (c *CertificateConfig) OrganizationalUnit() []string { return c.values("OU") }

func (c *CertificateConfig) values(name string) []string {
	var out []string
	for _, e := range c.NameEntries {
		if strings.EqualFold(e.Name, name) {
			out = append(out, e.Value)
		}
	}
	return out
}

// IssuedCertificate is a signed client certificate with its key and the
// Server's CA chain, all PEM encoded.
type IssuedCertificate struct {
	CertPEM []byte
	KeyPEM  []byte
	CA      [][]byte
}

// Credential returns the certificate as a CertificateCredential.
func (i *IssuedCertificate) Credential() *CertificateCredential {
	return &CertificateCredential{CertPEM: i.CertPEM, KeyPEM: i.KeyPEM}
}

type wireCertificateConfig struct {
	XMLName     xml.Name `xml:"certificateConfig"`
	NameEntries []struct {
		Attrs []xml.Attr `xml:",any,attr"`
	} `xml:"nameEntries>nameEntry"`
}

// Config fetches the CSR template. Both the name/value attribute form and
// the single-attribute form (O="..") are accepted.
func (cr *Credentials) Config(ctx context.Context) (*CertificateConfig, error) {
	resp, err := cr.c.Fetch(ctx, http.MethodGet, "/Marti/api/tls/config", FetchOptions{
		Header: http.Header{"Accept": {"application/xml"}},
	})
	if err != nil {
		return nil, fmt.Errorf("certificate config: %w", err)
	}

	var wire wireCertificateConfig
	if err := xml.Unmarshal(resp.Bytes(), &wire); err != nil {
		return nil, fmt.Errorf("certificate config: decode: %w", err)
	}

	cfg := &CertificateConfig{}
	for _, entry := range wire.NameEntries {
		var name, value string
		for _, a := range entry.Attrs {
			switch a.Name.Local {
			case "name":
				name = a.Value
			case "value":
				value = a.Value
			}
		}
		if name != "" {
			cfg.NameEntries = append(cfg.NameEntries, NameEntry{Name: name, Value: value})
			continue
		}
		for _, a := range entry.Attrs {
			cfg.NameEntries = append(cfg.NameEntries, NameEntry{Name: a.Name.Local, Value: a.Value})
		}
	}
	return cfg, nil
}

// Generate creates a key pair and CSR for username, has the Server sign
// it, and returns the result. The signing call authenticates with Basic
// credentials rather than the session cookie.
func (cr *Credentials) Generate(ctx context.Context, username, clientUID string) (*IssuedCertificate, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrConfiguration)
	}
	cfg, err := cr.Config(ctx)
	if err != nil {
		return nil, err
	}

	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	csrDER, err := x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{
		Subject: pkix.Name{
			CommonName:         username,
			Organization:       cfg.Organization(),
			OrganizationalUnit: cfg.OrganizationalUnit(),
		},
		SignatureAlgorithm: x509.SHA256WithRSA,
	}, key)
	if err != nil {
		return nil, fmt.Errorf("create csr: %w", err)
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}

	q := query{}.str("clientUid", clientUID).str("version", "3")
	resp, err := cr.c.Fetch(ctx, http.MethodPost, "/Marti/api/tls/signClient/v2", FetchOptions{
		Query:     url.Values(q),
		Header:    http.Header{"Accept": {"application/json"}, "Content-Type": {"text/plain"}},
		Body:      pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: csrDER}),
		NoCookies: true,
	})
	if err != nil {
		return nil, fmt.Errorf("sign client certificate: %w", err)
	}

	var signed map[string]string
	if err := resp.JSON(&signed); err != nil {
		return nil, fmt.Errorf("sign client certificate: %w", err)
	}
	if signed["signedCert"] == "" {
		return nil, fmt.Errorf("sign client certificate: response has no signedCert")
	}

	issued := &IssuedCertificate{
		CertPEM: wrapPEM("CERTIFICATE", signed["signedCert"]),
		KeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
	}

	var caKeys []string
	for k := range signed {
		if strings.HasPrefix(k, "ca") {
			caKeys = append(caKeys, k)
		}
	}
	sort.Strings(caKeys)
	for _, k := range caKeys {
		issued.CA = append(issued.CA, wrapPEM("CERTIFICATE", signed[k]))
	}
	return issued, nil
}

// wrapPEM turns bare base64 (possibly already line-broken) into a PEM
// block with 64 character lines.
func wrapPEM(blockType, b64 string) []byte {
	clean := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, b64)

	var sb strings.Builder
	sb.WriteString("-----BEGIN " + blockType + "-----\n")
	for len(clean) > 64 {
		sb.WriteString(clean[:64])
		sb.WriteByte('\n')
		clean = clean[64:]
	}
	if clean != "" {
		sb.WriteString(clean)
		sb.WriteByte('\n')
	}
	sb.WriteString("-----END " + blockType + "-----\n")
	return []byte(sb.String())
}
