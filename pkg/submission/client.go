package submission

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vnykmshr/docgate/pkg/common/validation"
	"github.com/vnykmshr/docgate/pkg/document"
	"github.com/vnykmshr/docgate/pkg/metrics"
	"github.com/vnykmshr/docgate/pkg/ratelimit/window"
)

// Defaults for the registration API.
const (
	DefaultURL         = "https://ismp.crpt.ru/api/v3/lk/documents/create"
	DefaultMethod      = http.MethodPost
	DefaultContentType = "application/json"
	DefaultUserAgent   = "docgate"
	DefaultCapacity    = 10
	DefaultWindow      = time.Second
)

// Header names set on every request.
const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderUserAgent     = "User-Agent"
	HeaderRequestID     = "X-Request-Id"
)

// Submission outcomes recorded in metrics.
const (
	outcomeSuccess       = "success"
	outcomeLimitExceeded = "limit_exceeded"
	outcomeNetworkError  = "network_error"
	outcomeStatusError   = "status_error"
	outcomeInvalid       = "invalid"
)

// Serializer converts a document into the request body.
type Serializer interface {
	Serialize(v any) ([]byte, error)
}

// Config holds the construction-time settings of a Client.
type Config struct {
	// Name labels the client's metrics and log lines.
	Name string

	URL         string
	Method      string
	ContentType string
	UserAgent   string

	// Capacity is the number of requests allowed to leave per Window.
	Capacity int
	Window   time.Duration

	// MaxWait bounds how long Submit waits for a permit. Zero waits until
	// the context is done.
	MaxWait time.Duration
}

// DefaultConfig returns a Config targeting the public registration API at
// ten requests per second.
func DefaultConfig() Config {
	return Config{
		Name:        "default",
		URL:         DefaultURL,
		Method:      DefaultMethod,
		ContentType: DefaultContentType,
		UserAgent:   DefaultUserAgent,
		Capacity:    DefaultCapacity,
		Window:      DefaultWindow,
	}
}

// Option customizes a Client.
type Option func(*Client)

// WithTransport replaces the default HTTPTransport.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithLimiter replaces the limiter built from Config.Capacity and
// Config.Window. Clients sharing one limiter share one budget.
func WithLimiter(l window.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithSerializer replaces document.JSONSerializer.
func WithSerializer(s Serializer) Option {
	return func(c *Client) { c.serializer = s }
}

// WithCredentialEncoder replaces BasicCredentialEncoder.
func WithCredentialEncoder(e CredentialEncoder) Option {
	return func(c *Client) { c.encoder = e }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records submission and limiter metrics into r.
func WithMetrics(r *metrics.Registry) Option {
	return func(c *Client) { c.metrics = r }
}

// Client submits documents to the registration API, never letting more than
// Capacity requests leave within one Window. It is safe for concurrent use.
type Client struct {
	config     Config
	limiter    window.Limiter
	transport  Transport
	serializer Serializer
	encoder    CredentialEncoder
	logger     *zap.Logger
	metrics    *metrics.Registry
}

// Result describes an accepted submission.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string

	// Waited is the time spent waiting for a permit.
	Waited time.Duration

	// Duration is the time spent in the remote call.
	Duration time.Duration
}

// New creates a Client. Empty string fields of config fall back to
// DefaultConfig; Capacity and Window are validated by the limiter unless
// WithLimiter is given.
func New(config Config, opts ...Option) (*Client, error) {
	defaults := DefaultConfig()
	if config.Name == "" {
		config.Name = defaults.Name
	}
	if config.URL == "" {
		config.URL = defaults.URL
	}
	if config.Method == "" {
		config.Method = defaults.Method
	}
	if config.ContentType == "" {
		config.ContentType = defaults.ContentType
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if err := validation.ValidateURL("submission", "url", config.URL); err != nil {
		return nil, err
	}

	c := &Client{config: config}
	for _, opt := range opts {
		opt(c)
	}

	if c.limiter == nil {
		limiter, err := window.NewWithConfigSafe(window.Config{
			Capacity: config.Capacity,
			Window:   config.Window,
			MaxWait:  config.MaxWait,
		})
		if err != nil {
			return nil, err
		}
		c.limiter = limiter
	}
	if c.metrics != nil {
		if _, ok := c.limiter.(*window.MetricsLimiter); !ok {
			c.limiter = window.Instrument(c.limiter, config.Name, c.metrics)
		}
	}
	if c.transport == nil {
		c.transport = NewHTTPTransport(DefaultHTTPTransportConfig())
	}
	if c.serializer == nil {
		c.serializer = document.JSONSerializer{}
	}
	if c.encoder == nil {
		c.encoder = BasicCredentialEncoder{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.With(zap.String("client", config.Name))

	return c, nil
}

// Submit waits for a permit, then sends doc signed with credential.
//
// A document that cannot be serialized or an unusable credential fails
// before any permit is taken. When the wait is abandoned the error is a
// *window.WaitError and nothing is sent. Otherwise exactly one request is
// sent: a network failure or a non-2xx answer yields a *TransportError, and
// the permit stays spent either way.
func (c *Client) Submit(ctx context.Context, doc any, credential string) (*Result, error) {
	body, err := c.serializer.Serialize(doc)
	if err != nil {
		c.count(outcomeInvalid)
		return nil, fmt.Errorf("submission: serialize document: %w", err)
	}
	auth, err := c.encoder.Encode(credential)
	if err != nil {
		c.count(outcomeInvalid)
		return nil, fmt.Errorf("submission: encode credential: %w", err)
	}

	waitStart := time.Now()
	if err := c.limiter.Acquire(ctx); err != nil {
		c.count(outcomeLimitExceeded)
		c.logger.Warn("no permit for submission", zap.Duration("waited", time.Since(waitStart)), zap.Error(err))
		return nil, err
	}
	waited := time.Since(waitStart)

	requestID := uuid.NewString()
	req := &Request{
		URL:    c.config.URL,
		Method: c.config.Method,
		Header: http.Header{
			HeaderAuthorization: {auth},
			HeaderContentType:   {c.config.ContentType},
			HeaderUserAgent:     {c.config.UserAgent},
			HeaderRequestID:     {requestID},
		},
		Body: body,
	}

	resp, duration, err := c.send(ctx, req)
	if err != nil {
		c.count(outcomeNetworkError)
		c.logger.Warn("submission failed",
			zap.String("request_id", requestID),
			zap.Duration("duration", duration),
			zap.Error(err))
		return nil, &TransportError{Kind: KindNetwork, RequestID: requestID, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.count(outcomeStatusError)
		c.logger.Warn("submission rejected",
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", duration))
		return nil, &TransportError{
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
			RequestID:  requestID,
		}
	}

	c.count(outcomeSuccess)
	c.logger.Debug("submission accepted",
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("waited", waited),
		zap.Duration("duration", duration))

	return &Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
		RequestID:  requestID,
		Waited:     waited,
		Duration:   duration,
	}, nil
}

func (c *Client) send(ctx context.Context, req *Request) (*Response, time.Duration, error) {
	if c.metrics != nil {
		inFlight := c.metrics.InFlight.WithLabelValues(c.config.Name)
		inFlight.Inc()
		defer inFlight.Dec()
	}

	start := time.Now()
	resp, err := c.transport.Send(ctx, req)
	duration := time.Since(start)

	if c.metrics != nil {
		c.metrics.TransportDuration.WithLabelValues(c.config.Name).Observe(duration.Seconds())
	}
	if err == nil && resp == nil {
		err = fmt.Errorf("transport returned no response")
	}
	return resp, duration, err
}

func (c *Client) count(outcome string) {
	if c.metrics != nil {
		c.metrics.Submissions.WithLabelValues(c.config.Name, outcome).Inc()
	}
}

// Limiter returns the limiter guarding this client.
func (c *Client) Limiter() window.Limiter {
	return c.limiter
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// Close releases the transport's resources when it holds any.
func (c *Client) Close() error {
	if closer, ok := c.transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
