package submission

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransport_ResponseBodyIsCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(HTTPTransportConfig{MaxResponseBytes: 10})
	defer tr.Close()

	resp, err := tr.Send(context.Background(), &Request{URL: srv.URL, Method: http.MethodPost})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, resp.Body, 10)
}

func TestHTTPTransport_NonSuccessIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tr := NewHTTPTransport(DefaultHTTPTransportConfig())
	defer tr.Close()

	resp, err := tr.Send(context.Background(), &Request{URL: srv.URL, Method: http.MethodPost})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unavailable\n", string(resp.Body))
}

func TestHTTPTransport_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	tr := NewHTTPTransport(DefaultHTTPTransportConfig())
	defer tr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := tr.Send(ctx, &Request{URL: srv.URL, Method: http.MethodPost})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestHTTPTransport_InvalidRequest(t *testing.T) {
	tr := NewHTTPTransport(DefaultHTTPTransportConfig())
	defer tr.Close()

	_, err := tr.Send(context.Background(), &Request{URL: "://bad", Method: http.MethodPost})
	assert.Error(t, err)
}

func TestBasicCredentialEncoder(t *testing.T) {
	got, err := BasicCredentialEncoder{}.Encode("user:secret")
	require.NoError(t, err)
	assert.Equal(t, "Basic dXNlcjpzZWNyZXQ=", got)

	_, err = BasicCredentialEncoder{}.Encode("")
	assert.Error(t, err)
}

func TestTransportError_Message(t *testing.T) {
	long := []byte(strings.Repeat("a", 1000))
	err := &TransportError{Kind: KindStatus, StatusCode: 500, Body: long, RequestID: "r1"}
	assert.Contains(t, err.Error(), "request r1 rejected with status 500")
	assert.Less(t, len(err.Error()), 400)

	netErr := &TransportError{Kind: KindNetwork, RequestID: "r2", Err: errors.New("reset")}
	assert.Equal(t, "submission: request r2 failed: reset", netErr.Error())
}
