package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/vnykmshr/docgate/pkg/document"
	"github.com/vnykmshr/docgate/pkg/submission"
)

// EnvPrefix prefixes every environment override, e.g. DOCGATE_CLIENT_CAPACITY.
const EnvPrefix = "DOCGATE"

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("client.url", submission.DefaultURL)
	v.SetDefault("client.capacity", submission.DefaultCapacity)
	v.SetDefault("client.window", submission.DefaultWindow)
	v.SetDefault("client.max_wait", "0s")
	v.SetDefault("client.timeout", "30s")
	v.SetDefault("client.max_idle_conns", 100)
	v.SetDefault("client.user_agent", submission.DefaultUserAgent)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_pending", 256)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "2m")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("outbox.dir", "./outbox")
	v.SetDefault("outbox.schedule", "@every 10s")
	v.SetDefault("outbox.workers", 4)
	v.SetDefault("outbox.credential", "")

	v.SetDefault("defaults.doc_type", document.DefaultDocType)
	v.SetDefault("defaults.import_request", true)

	v.SetDefault("metrics.enabled", true)
}

// New returns a viper instance with defaults, env binding and, when path is
// non-empty, the config file read in.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		return v, nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return v, nil
}

// Decode unmarshals v into a Config and validates it.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from path (optional) and the environment.
func Load(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}

// DocumentDefaults converts the defaults section for document.Defaults.Apply.
func (c *Config) DocumentDefaults() document.Defaults {
	d := document.DefaultDefaults()
	d.DocType = c.Defaults.DocType
	d.ImportRequest = c.Defaults.ImportRequest
	return d
}

// SubmissionConfig converts the client section for submission.New.
func (c *Config) SubmissionConfig() submission.Config {
	sc := submission.DefaultConfig()
	sc.URL = c.Client.URL
	sc.Capacity = c.Client.Capacity
	sc.Window = c.Client.Window
	sc.MaxWait = c.Client.MaxWait
	if c.Client.UserAgent != "" {
		sc.UserAgent = c.Client.UserAgent
	}
	return sc
}

// TransportConfig converts the client section for submission.NewHTTPTransport.
func (c *Config) TransportConfig() submission.HTTPTransportConfig {
	tc := submission.DefaultHTTPTransportConfig()
	tc.Timeout = c.Client.Timeout
	if c.Client.MaxIdleConns > 0 {
		tc.MaxIdleConns = c.Client.MaxIdleConns
	}
	return tc
}
