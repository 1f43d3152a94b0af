package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gferrors "github.com/vnykmshr/docgate/pkg/common/errors"
	"github.com/vnykmshr/docgate/pkg/document"
	"github.com/vnykmshr/docgate/pkg/submission"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, submission.DefaultURL, cfg.Client.URL)
	assert.Equal(t, 10, cfg.Client.Capacity)
	assert.Equal(t, time.Second, cfg.Client.Window)
	assert.Equal(t, time.Duration(0), cfg.Client.MaxWait)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 256, cfg.Server.MaxPending)
	assert.Equal(t, 2*time.Minute, cfg.Server.WriteTimeout)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "@every 10s", cfg.Outbox.Schedule)
	assert.Equal(t, document.DefaultDocType, cfg.Defaults.DocType)
	assert.True(t, cfg.Defaults.ImportRequest)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
client:
  url: https://registry.test/api/v3/lk/documents/create
  capacity: 3
  window: 500ms
  max_wait: 2s
server:
  addr: 127.0.0.1:9090
log:
  format: console
outbox:
  schedule: "*/5 * * * *"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://registry.test/api/v3/lk/documents/create", cfg.Client.URL)
	assert.Equal(t, 3, cfg.Client.Capacity)
	assert.Equal(t, 500*time.Millisecond, cfg.Client.Window)
	assert.Equal(t, 2*time.Second, cfg.Client.MaxWait)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "*/5 * * * *", cfg.Outbox.Schedule)
	// untouched sections keep their defaults
	assert.Equal(t, 256, cfg.Server.MaxPending)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "client:\n  capacity: 3\n")
	t.Setenv("DOCGATE_CLIENT_CAPACITY", "7")
	t.Setenv("DOCGATE_CLIENT_WINDOW", "2s")
	t.Setenv("DOCGATE_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Client.Capacity)
	assert.Equal(t, 2*time.Second, cfg.Client.Window)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"zero capacity", "client:\n  capacity: 0\n", "client.capacity"},
		{"zero window", "client:\n  window: 0s\n", "client.window"},
		{"negative max wait", "client:\n  max_wait: -1s\n", "client.max_wait"},
		{"relative url", "client:\n  url: /documents\n", "client.url"},
		{"bad schedule", "outbox:\n  schedule: every now and then\n", "outbox.schedule"},
		{"bad log format", "log:\n  format: xml\n", "log.format"},
		{"zero pending", "server:\n  max_pending: 0\n", "server.max_pending"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, gferrors.ErrInvalidConfiguration)

			var verr *gferrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConversions(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
client:
  capacity: 4
  window: 250ms
  timeout: 5s
  max_idle_conns: 8
defaults:
  doc_type: LP_SHIP_GOODS
  import_request: false
`))
	require.NoError(t, err)

	sc := cfg.SubmissionConfig()
	assert.Equal(t, 4, sc.Capacity)
	assert.Equal(t, 250*time.Millisecond, sc.Window)
	assert.Equal(t, submission.DefaultMethod, sc.Method)

	tc := cfg.TransportConfig()
	assert.Equal(t, 5*time.Second, tc.Timeout)
	assert.Equal(t, 8, tc.MaxIdleConns)

	var doc document.Document
	cfg.DocumentDefaults().Apply(&doc)
	assert.Equal(t, "LP_SHIP_GOODS", doc.DocType)
	assert.False(t, doc.ImportRequest)
}
