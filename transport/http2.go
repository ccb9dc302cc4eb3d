// Package transport provides the HTTP/2 client pinned to bundled trust anchors
// and the invoker that executes resolved eAPI requests.
package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"
)

// DefaultTimeout bounds a whole request (connect, TLS, body read).
const DefaultTimeout = 30 * time.Second

// LoadAnchors reads a PEM bundle of trust anchors from disk.
func LoadAnchors(caPath string) ([]byte, error) {
	if caPath == "" {
		return nil, fmt.Errorf("caPath required")
	}
	data, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read trust anchors: %w", err)
	}
	return data, nil
}

// BuildHTTP2Client creates an HTTP client that only trusts the given PEM
// anchors. The system certificate store is never consulted.
func BuildHTTP2Client(anchors []byte, timeout time.Duration) (*http.Client, error) {
	if len(anchors) == 0 {
		return nil, fmt.Errorf("trust anchors required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(anchors) {
		return nil, fmt.Errorf("failed to parse trust anchors")
	}

	tlsConfig := &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     tlsConfig,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}

	// Negotiate HTTP/2 over the pinned TLS config, falling back to HTTP/1.1
	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, fmt.Errorf("failed to configure HTTP/2: %w", err)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}
