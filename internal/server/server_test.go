package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gferrors "github.com/vnykmshr/docgate/pkg/common/errors"
	"github.com/vnykmshr/docgate/pkg/document"
	"github.com/vnykmshr/docgate/pkg/metrics"
	"github.com/vnykmshr/docgate/pkg/ratelimit/concurrency"
	"github.com/vnykmshr/docgate/pkg/submission"
)

type fixture struct {
	server *Server
	sends  *int32
	last   atomic.Value // *submission.Request
}

func newFixture(t *testing.T, capacity int, maxWait time.Duration, answer func(*submission.Request) (*submission.Response, error)) *fixture {
	t.Helper()

	f := &fixture{sends: new(int32)}
	transport := submission.TransportFunc(func(ctx context.Context, req *submission.Request) (*submission.Response, error) {
		atomic.AddInt32(f.sends, 1)
		f.last.Store(req)
		return answer(req)
	})

	reg := prometheus.NewRegistry()
	cfg := submission.DefaultConfig()
	cfg.Capacity = capacity
	cfg.Window = time.Hour
	cfg.MaxWait = maxWait
	client, err := submission.New(cfg,
		submission.WithTransport(transport),
		submission.WithMetrics(metrics.NewRegistry(reg)))
	require.NoError(t, err)

	pending, err := concurrency.NewSafe(4)
	require.NoError(t, err)

	f.server, err = New(Options{
		Client:   client,
		Pending:  pending,
		Defaults: document.DefaultDefaults(),
		Gatherer: reg,
	})
	require.NoError(t, err)
	return f
}

func ok(req *submission.Request) (*submission.Response, error) {
	return &submission.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"application/json"}},
		Body:       []byte(`{"value":"accepted"}`),
	}, nil
}

func postDocument(t *testing.T, h http.Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_RequiresClientAndLimiter(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.True(t, gferrors.IsValidationError(err))

	var client *submission.Client
	_, err = New(Options{Client: client})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client")
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		delay time.Duration
		want  string
	}{
		{0, "1"},
		{-time.Second, "1"},
		{time.Millisecond, "1"},
		{time.Second, "1"},
		{1500 * time.Millisecond, "2"},
		{10 * time.Second, "10"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, retryAfter(tt.delay), "delay %v", tt.delay)
	}
}

func TestSubmit_Success(t *testing.T) {
	f := newFixture(t, 2, 0, ok)

	rec := postDocument(t, f.server.Handler(), `{"doc_id":"d-1","owner_inn":"7700000000"}`,
		map[string]string{SignatureHeader: "signature", RequestIDHeader: "caller-1"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"value":"accepted"}`, rec.Body.String())
	assert.Equal(t, "caller-1", rec.Header().Get(RequestIDHeader))
	assert.NotEmpty(t, rec.Header().Get(UpstreamRequestIDHeader))
	assert.Equal(t, int32(1), atomic.LoadInt32(f.sends))

	req := f.last.Load().(*submission.Request)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &wire))
	assert.Equal(t, "d-1", wire["doc_id"])
	assert.Equal(t, document.DefaultDocType, wire["doc_type"])
	assert.Equal(t, true, wire["importRequest"])
}

func TestSubmit_YAMLBody(t *testing.T) {
	f := newFixture(t, 2, 0, ok)

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", strings.NewReader("doc_id: d-2\nproduction_date: 2024-05-01\n"))
	req.Header.Set("Content-Type", "application/yaml")
	req.Header.Set(SignatureHeader, "signature")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	sent := f.last.Load().(*submission.Request)
	assert.Contains(t, string(sent.Body), `"production_date":"2024-05-01"`)
}

func TestSubmit_MissingSignature(t *testing.T) {
	f := newFixture(t, 2, 0, ok)

	rec := postDocument(t, f.server.Handler(), `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(f.sends))
}

func TestSubmit_InvalidBody(t *testing.T) {
	f := newFixture(t, 2, 0, ok)

	rec := postDocument(t, f.server.Handler(), `{"unknown_field":1}`, map[string]string{SignatureHeader: "sig"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid document", body.Error)
	assert.Equal(t, int32(0), atomic.LoadInt32(f.sends))
	assert.Equal(t, 2, f.server.opts.Client.Limiter().Remaining())
}

func TestSubmit_LimitExceeded(t *testing.T) {
	f := newFixture(t, 1, 20*time.Millisecond, ok)
	h := f.server.Handler()

	rec := postDocument(t, h, `{}`, map[string]string{SignatureHeader: "sig"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postDocument(t, h, `{}`, map[string]string{SignatureHeader: "sig"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, int32(1), atomic.LoadInt32(f.sends))
}

func TestSubmit_UpstreamRejected(t *testing.T) {
	f := newFixture(t, 3, 0, func(*submission.Request) (*submission.Response, error) {
		return &submission.Response{StatusCode: http.StatusUnprocessableEntity, Body: []byte(`{"error_message":"bad"}`)}, nil
	})

	rec := postDocument(t, f.server.Handler(), `{}`, map[string]string{SignatureHeader: "sig"})
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusUnprocessableEntity, body.UpstreamStatus)
	assert.Equal(t, `{"error_message":"bad"}`, body.UpstreamBody)
	assert.Equal(t, 2, f.server.opts.Client.Limiter().Remaining())
}

func TestSubmit_UpstreamUnreachable(t *testing.T) {
	f := newFixture(t, 3, 0, func(*submission.Request) (*submission.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})

	rec := postDocument(t, f.server.Handler(), `{}`, map[string]string{SignatureHeader: "sig"})
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Detail, "connection refused")
}

func TestSubmit_TooManyPending(t *testing.T) {
	f := newFixture(t, 2, 0, ok)

	for i := 0; i < 4; i++ {
		require.True(t, f.server.opts.Pending.TryAcquire())
	}

	rec := postDocument(t, f.server.Handler(), `{}`, map[string]string{SignatureHeader: "sig"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), gferrors.ErrCapacityExceeded.Error())
	assert.Equal(t, int32(0), atomic.LoadInt32(f.sends))
}

func TestSubmit_PendingSlotReleased(t *testing.T) {
	f := newFixture(t, 5, 0, ok)

	for i := 0; i < 3; i++ {
		rec := postDocument(t, f.server.Handler(), `{}`, map[string]string{SignatureHeader: "sig"})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 0, f.server.opts.Pending.InUse())
}

func TestHealth(t *testing.T) {
	f := newFixture(t, 3, 0, ok)
	h := f.server.Handler()

	postDocument(t, h, `{}`, map[string]string{SignatureHeader: "sig"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 3, body.Limiter.Capacity)
	assert.Equal(t, 2, body.Limiter.Remaining)
	assert.Equal(t, "1h0m0s", body.Limiter.Window)
	assert.Equal(t, int64(1), body.Limiter.Granted)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, 3, 0, ok)
	h := f.server.Handler()

	postDocument(t, h, `{}`, map[string]string{SignatureHeader: "sig"})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `docgate_submission_total{client_name="default",outcome="success"} 1`)
}

func TestNotFound(t *testing.T) {
	f := newFixture(t, 1, 0, ok)

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/documents", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	f := newFixture(t, 1, 0, ok)
	f.server.opts.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- f.server.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
