package eapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/st-keller/eapi-client/apierr"
	"github.com/st-keller/eapi-client/endpoint"
	"github.com/st-keller/eapi-client/transport"
)

const (
	DefaultServer    = "https://socialcrawlytics.com/eapi"
	DefaultFormat    = "json"
	DefaultUserAgent = "eapi-client-go/1.0"
)

// DefaultFormats is the response format allow-list used when Config.Formats is empty.
var DefaultFormats = []string{DefaultFormat}

// Config holds client configuration. Token and Key are required.
type Config struct {
	Token   string        // API token
	Key     string        // API key
	Format  string        // Response format (default "json")
	Formats []string      // Allowed formats (default ["json"])
	Server  string        // Base URL (default "https://socialcrawlytics.com/eapi")
	Timeout time.Duration // Whole-request deadline (default 30s)

	// Trust anchors the TLS connection is pinned to (PEM). When both are
	// empty the bundle shipped in package transport is pinned. The system
	// certificate store is never consulted.
	TrustAnchor []byte
	CAPath      string

	HTTPClient *http.Client    // Optional: replaces the pinned HTTP/2 client entirely
	Endpoints  *endpoint.Table // Optional: reject invocations outside this table
	Logger     *slog.Logger    // Optional: defaults to slog.Default()
	UserAgent  string          // Optional: defaults to DefaultUserAgent
}

// withDefaults fills optional fields.
func (c Config) withDefaults() Config {
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if len(c.Formats) == 0 {
		c.Formats = DefaultFormats
	}
	if c.Server == "" {
		c.Server = DefaultServer
	}
	if c.Timeout == 0 {
		c.Timeout = transport.DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}

// Validate checks if all required config fields are present.
// Every failure is a ConfigurationError.
func (c Config) Validate() error {
	c = c.withDefaults()

	if c.Token == "" {
		return configErr("Token required")
	}
	if c.Key == "" {
		return configErr("Key required")
	}
	if !slices.Contains(c.Formats, c.Format) {
		return configErr(fmt.Sprintf("Format %q not supported (allowed: %v)", c.Format, c.Formats))
	}
	if c.Timeout < 0 {
		return configErr("Timeout must be >= 0")
	}

	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return configErr(fmt.Sprintf("Server %q must be an absolute http(s) URL", c.Server))
	}
	return nil
}

func configErr(msg string) error {
	return apierr.Errorf(apierr.KindConfiguration, "eapi.Config", "%s", msg)
}
