// Package netx is the thin HTTP layer under the resource server: a
// Transport that returns fully read bodies and multipart encoding for upload
// endpoints.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Transport performs a request and returns the complete response body
// alongside the response. The body is already closed.
type Transport interface {
	Perform(ctx context.Context, req *http.Request) ([]byte, *http.Response, error)
	PerformUpload(ctx context.Context, req *http.Request, body []byte) ([]byte, *http.Response, error)
}

type HTTPTransport struct {
	client *http.Client
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport wraps client (http.DefaultTransport when nil) so every
// round trip is traced through otelhttp.
func NewHTTPTransport(client *http.Client, timeout time.Duration) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	c := *client
	c.Transport = otelhttp.NewTransport(base)
	if timeout > 0 {
		c.Timeout = timeout
	}
	return &HTTPTransport{client: &c}
}

func (t *HTTPTransport) Perform(ctx context.Context, req *http.Request) ([]byte, *http.Response, error) {
	resp, err := t.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, fmt.Errorf("read response body: %w", err)
	}
	return data, resp, nil
}

func (t *HTTPTransport) PerformUpload(ctx context.Context, req *http.Request, body []byte) ([]byte, *http.Response, error) {
	r := req.Clone(ctx)
	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return t.Perform(ctx, r)
}
