// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package takapi

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

func checkStringEqual(t *testing.T, fieldName, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %q, got %q", fieldName, want, got)
	}
}

func checkIntEqual(t *testing.T, fieldName string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, got)
	}
}

func checkTrue(t *testing.T, description string, condition bool) {
	t.Helper()
	if !condition {
		t.Errorf("expected %s", description)
	}
}

func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func checkErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected error matching %v, got %v", target, err)
	}
}

func checkErrorContains(t *testing.T, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Errorf("expected error containing %q, got %q", substr, err.Error())
	}
}

func checkSliceLen(t *testing.T, name string, got, want int) {
	t.Helper()
	if got != want {
		t.Fatalf("%s: expected length %d, got %d", name, want, got)
	}
}

// endpointFor points every port of an Endpoint at srv.
func endpointFor(t *testing.T, srv *httptest.Server) Endpoint {
	t.Helper()
	u, err := url.Parse(srv.URL)
	checkNoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	checkNoError(t, err)
	port, err := strconv.Atoi(portStr)
	checkNoError(t, err)
	return Endpoint{Scheme: u.Scheme, Host: host, APIPort: port, WebTAKPort: port, StreamPort: port}
}

// newTokenClient returns a token-authenticated client against handler.
func newTokenClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(endpointFor(t, srv), TokenCredential{Token: "test-token"}, opts...)
	checkNoError(t, err)
	return c, srv
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// testCA is a throwaway signing authority for client certificates.
type testCA struct {
	cert *x509.Certificate
	key  *rsa.PrivateKey
	der  []byte
}

func newTestCA(t *testing.T) *testCA {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	checkNoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	checkNoError(t, err)
	cert, err := x509.ParseCertificate(der)
	checkNoError(t, err)
	return &testCA{cert: cert, key: key, der: der}
}

// sign issues a client certificate for pub with the given subject.
func (ca *testCA) sign(t *testing.T, subject pkix.Name, pub any) []byte {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      subject,
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, ca.cert, pub, ca.key)
	checkNoError(t, err)
	return der
}

// clientCredential issues a client certificate for commonName.
func (ca *testCA) clientCredential(t *testing.T, commonName string) *CertificateCredential {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	checkNoError(t, err)
	der := ca.sign(t, pkix.Name{CommonName: commonName}, &key.PublicKey)
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	checkNoError(t, err)
	return &CertificateCredential{
		CertPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		KeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
	}
}
