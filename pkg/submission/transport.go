package submission

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Request is the envelope handed to a Transport: one serialized document
// plus the headers derived from the caller's credential.
type Request struct {
	URL    string
	Method string
	Header http.Header
	Body   []byte
}

// Response is what the remote endpoint answered.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport sends a Request to the remote registration API.
// Implementations must be safe for concurrent use. A non-nil error means the
// exchange did not complete; any status code, including non-2xx ones, is
// reported through Response.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Send implements Transport.
func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPTransportConfig tunes the pooled HTTP client behind HTTPTransport.
type HTTPTransportConfig struct {
	// Timeout bounds a whole exchange, including reading the body.
	// Zero means no timeout beyond the request context.
	Timeout time.Duration

	// MaxIdleConns and MaxIdleConnsPerHost size the keep-alive pool.
	MaxIdleConns        int
	MaxIdleConnsPerHost int

	// IdleConnTimeout closes pooled connections idle for longer.
	IdleConnTimeout time.Duration

	// MaxResponseBytes caps how much of a response body is kept.
	MaxResponseBytes int64
}

// DefaultHTTPTransportConfig returns the settings used when no transport is
// supplied to New.
func DefaultHTTPTransportConfig() HTTPTransportConfig {
	return HTTPTransportConfig{
		Timeout:             30 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		MaxResponseBytes:    1 << 20,
	}
}

// HTTPTransport sends requests with a single long-lived *http.Client so that
// connections are reused across submissions.
type HTTPTransport struct {
	client           *http.Client
	maxResponseBytes int64
}

// NewHTTPTransport builds an HTTPTransport. Zero fields in config fall back
// to DefaultHTTPTransportConfig.
func NewHTTPTransport(config HTTPTransportConfig) *HTTPTransport {
	defaults := DefaultHTTPTransportConfig()
	if config.MaxIdleConns <= 0 {
		config.MaxIdleConns = defaults.MaxIdleConns
	}
	if config.MaxIdleConnsPerHost <= 0 {
		config.MaxIdleConnsPerHost = defaults.MaxIdleConnsPerHost
	}
	if config.IdleConnTimeout <= 0 {
		config.IdleConnTimeout = defaults.IdleConnTimeout
	}
	if config.MaxResponseBytes <= 0 {
		config.MaxResponseBytes = defaults.MaxResponseBytes
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.MaxIdleConns = config.MaxIdleConns
	base.MaxIdleConnsPerHost = config.MaxIdleConnsPerHost
	base.IdleConnTimeout = config.IdleConnTimeout

	return &HTTPTransport{
		client: &http.Client{
			Transport: base,
			Timeout:   config.Timeout,
		},
		maxResponseBytes: config.MaxResponseBytes,
	}
}

// Send performs the HTTP exchange described by req.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header = req.Header.Clone()
	if httpReq.Header == nil {
		httpReq.Header = make(http.Header)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// Close releases idle pooled connections.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
