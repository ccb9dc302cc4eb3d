package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/st-keller/eapi-client/apierr"
	"github.com/st-keller/eapi-client/endpoint"
)

// RequestIDHeader carries the per-call request id.
const RequestIDHeader = "X-Request-ID"

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response is the fully buffered reply of one call.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Invoker issues resolved requests. It never retries.
type Invoker struct {
	doer      Doer
	userAgent string
}

// NewInvoker creates an Invoker on top of doer.
func NewInvoker(doer Doer, userAgent string) *Invoker {
	return &Invoker{doer: doer, userAgent: userAgent}
}

// Invoke performs req synchronously and buffers the whole body.
// op names the call in errors; it must not contain credentials.
func (i *Invoker) Invoke(ctx context.Context, op string, req endpoint.Request, requestID string) (Response, error) {
	var body io.Reader
	if req.Method == http.MethodPost {
		body = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		// The URL carries credentials; keep it out of the error.
		return Response{}, apierr.Errorf(apierr.KindTransport, op, "failed to build request")
	}

	httpReq.Header.Set("Accept", "application/json")
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if i.userAgent != "" {
		httpReq.Header.Set("User-Agent", i.userAgent)
	}
	if requestID != "" {
		httpReq.Header.Set(RequestIDHeader, requestID)
	}

	resp, err := i.doer.Do(httpReq)
	if err != nil {
		return Response{}, apierr.E(apierr.KindTransport, op, redact(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, &apierr.Error{
			Kind:   apierr.KindTransport,
			Op:     op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("failed to read response body: %w", redact(err)),
		}
	}

	return Response{Status: resp.StatusCode, Body: data}, nil
}

// redact drops the request URL (and its token/key) from *url.Error values
// while keeping the underlying cause inspectable.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
