// Package config loads docgate's configuration from defaults, an optional
// YAML file and DOCGATE_ environment variables, in that order of precedence.
package config

import (
	"time"

	gferrors "github.com/vnykmshr/docgate/pkg/common/errors"
	"github.com/vnykmshr/docgate/pkg/common/validation"
	"github.com/vnykmshr/docgate/pkg/scheduling/scheduler"
)

// Config is the root configuration.
type Config struct {
	Client   ClientConfig   `mapstructure:"client"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ClientConfig configures the submission client and its rate limit.
type ClientConfig struct {
	URL          string        `mapstructure:"url"`
	Capacity     int           `mapstructure:"capacity"`
	Window       time.Duration `mapstructure:"window"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// ServerConfig configures the intake HTTP server.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	MaxPending      int           `mapstructure:"max_pending"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig selects the log level and encoding.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutboxConfig configures docgate watch.
type OutboxConfig struct {
	Dir        string `mapstructure:"dir"`
	Schedule   string `mapstructure:"schedule"`
	Workers    int    `mapstructure:"workers"`
	Credential string `mapstructure:"credential"`
}

// DefaultsConfig holds the values filled into documents that omit them.
type DefaultsConfig struct {
	DocType       string `mapstructure:"doc_type"`
	ImportRequest bool   `mapstructure:"import_request"`
}

// MetricsConfig toggles Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if err := validation.ValidateURL("config", "client.url", c.Client.URL); err != nil {
		return err
	}
	if err := validation.ValidatePositive("config", "client.capacity", c.Client.Capacity); err != nil {
		return err
	}
	if err := validation.ValidatePositiveDuration("config", "client.window", c.Client.Window); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeDuration("config", "client.max_wait", c.Client.MaxWait); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeDuration("config", "client.timeout", c.Client.Timeout); err != nil {
		return err
	}
	if err := validation.ValidatePositive("config", "server.max_pending", c.Server.MaxPending); err != nil {
		return err
	}
	if err := validation.ValidatePositive("config", "outbox.workers", c.Outbox.Workers); err != nil {
		return err
	}
	if err := scheduler.ValidateCron(c.Outbox.Schedule); err != nil {
		return gferrors.NewValidationError("config", "outbox.schedule", c.Outbox.Schedule, err.Error()).
			WithHint("use a cron expression such as */5 * * * * or @every 30s")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return gferrors.NewValidationError("config", "log.format", c.Log.Format, "unknown format").
			WithHint("use json or console")
	}
	return nil
}
