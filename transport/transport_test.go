package transport

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/st-keller/eapi-client/apierr"
	"github.com/st-keller/eapi-client/endpoint"
)

// serverAnchor returns the PEM of an httptest TLS server certificate.
func serverAnchor(srv *httptest.Server) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
}

// selfSignedCA generates a throwaway CA valid for the given window.
func selfSignedCA(t *testing.T, notBefore, notAfter time.Time) []byte {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "Throwaway Test CA"},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func newTLSServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewUnstartedServer(handler)
	srv.EnableHTTP2 = true
	srv.StartTLS()
	t.Cleanup(srv.Close)
	return srv
}

func TestBuildHTTP2ClientValidation(t *testing.T) {
	_, err := BuildHTTP2Client(nil, 0)
	assert.EqualError(t, err, "trust anchors required")

	_, err = BuildHTTP2Client([]byte("not pem"), 0)
	assert.EqualError(t, err, "failed to parse trust anchors")
}

func TestBuildHTTP2ClientDefaultTimeout(t *testing.T) {
	srv := newTLSServer(t, func(w http.ResponseWriter, r *http.Request) {})

	client, err := BuildHTTP2Client(serverAnchor(srv), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, client.Timeout)
}

func TestPinnedAnchorAccepted(t *testing.T) {
	srv := newTLSServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "HTTP/2.0", r.Proto)
		assert.Equal(t, "req-1", r.Header.Get(RequestIDHeader))
		assert.Equal(t, "eapi-client-go/test", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`{"_transactions":[]}`))
	})

	client, err := BuildHTTP2Client(serverAnchor(srv), 5*time.Second)
	require.NoError(t, err)

	inv := NewInvoker(client, "eapi-client-go/test")
	resp, err := inv.Invoke(context.Background(), "GET reports/list",
		endpoint.Request{Method: "GET", URL: srv.URL + "/reports/list.json?token=t&key=k"}, "req-1")

	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"_transactions":[]}`, string(resp.Body))
}

func TestUnpinnedServerRejected(t *testing.T) {
	srv := newTLSServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server")
	})

	other := selfSignedCA(t, time.Now().Add(-time.Hour), time.Now().Add(24*time.Hour))
	client, err := BuildHTTP2Client(other, 5*time.Second)
	require.NoError(t, err)

	inv := NewInvoker(client, "")
	_, err = inv.Invoke(context.Background(), "GET reports/list",
		endpoint.Request{Method: "GET", URL: srv.URL + "/reports/list.json?token=secret-token&key=secret-key"}, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, apierr.ErrTransport)
	assert.NotContains(t, err.Error(), "secret-token")
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestInvokePostSendsFormBody(t *testing.T) {
	srv := newTLSServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, endpoint.FormContentType, r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "website=x&websiteDepth=0", string(body))
		w.WriteHeader(http.StatusBadGateway)
	})

	client, err := BuildHTTP2Client(serverAnchor(srv), 5*time.Second)
	require.NoError(t, err)

	resp, err := NewInvoker(client, "").Invoke(context.Background(), "POST reports/create", endpoint.Request{
		Method:      "POST",
		URL:         srv.URL + "/reports/create.json?token=t&key=k",
		Body:        "website=x&websiteDepth=0",
		ContentType: endpoint.FormContentType,
	}, "")

	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusBadGateway, resp.Status)
	assert.Empty(t, resp.Body)
}

func TestInvokeHonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := newTLSServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	client, err := BuildHTTP2Client(serverAnchor(srv), 5*time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = NewInvoker(client, "").Invoke(ctx, "GET reports/list",
		endpoint.Request{Method: "GET", URL: srv.URL + "/reports/list.json"}, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, apierr.ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoadAnchors(t *testing.T) {
	_, err := LoadAnchors("")
	assert.EqualError(t, err, "caPath required")

	_, err = LoadAnchors(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "ca.cert.pem")
	ca := selfSignedCA(t, time.Now().Add(-time.Hour), time.Now().Add(24*time.Hour))
	require.NoError(t, os.WriteFile(path, ca, 0600))

	data, err := LoadAnchors(path)
	require.NoError(t, err)
	assert.Equal(t, ca, data)
}

func TestInspectAnchors(t *testing.T) {
	now := time.Now()
	longLived := selfSignedCA(t, now.Add(-time.Hour), now.Add(365*24*time.Hour))
	shortLived := selfSignedCA(t, now.Add(-time.Hour), now.Add(10*24*time.Hour))
	expired := selfSignedCA(t, now.Add(-48*time.Hour), now.Add(-24*time.Hour))

	bundle := append(append(append([]byte{}, longLived...), shortLived...), expired...)

	infos, err := inspectAt(bundle, now)
	require.NoError(t, err)
	require.Len(t, infos, 3)

	assert.Equal(t, "CN=Throwaway Test CA", infos[0].Subject)
	assert.True(t, infos[0].IsCA)
	assert.False(t, infos[0].ExpiryWarning)
	assert.True(t, infos[1].ExpiryWarning)
	assert.True(t, infos[2].IsExpired)
	assert.False(t, infos[2].ExpiryWarning)

	expiring := Expiring(infos, ExpiryWarningDays)
	assert.Len(t, expiring, 2)
}

func TestInspectAnchorsEmpty(t *testing.T) {
	_, err := InspectAnchors([]byte("garbage"))
	assert.Error(t, err)
}

func TestBundledAnchors(t *testing.T) {
	infos, err := InspectAnchors(BundledAnchors())
	require.NoError(t, err)
	require.Len(t, infos, 4)
	for _, info := range infos {
		assert.True(t, info.IsCA, info.Subject)
		assert.False(t, info.IsExpired, info.Subject)
		assert.Equal(t, info.Subject, info.Issuer, "bundle holds self-signed roots only")
	}

	copied := BundledAnchors()
	copied[0] = 'x'
	assert.NotEqual(t, copied[0], BundledAnchors()[0])

	client, err := BuildHTTP2Client(BundledAnchors(), time.Second)
	require.NoError(t, err)
	assert.NotNil(t, client)
}
