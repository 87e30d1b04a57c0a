// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for recapd.
package config

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// DataDir holds the job database. Default: "./data".
	DataDir string `yaml:"data_dir"`

	// LogLevel is one of debug, info, warn, error. Default: "info".
	LogLevel string `yaml:"log_level"`

	Summarizer SummarizerConfig `yaml:"summarizer"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Sessions   SessionsConfig   `yaml:"sessions"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

// SummarizerConfig configures the summarization backend and its credentials.
type SummarizerConfig struct {
	// Model is the model identifier. Default: "deepseek/deepseek-r1:free".
	Model string `yaml:"model"`

	// BaseURL is the backend API base URL.
	BaseURL string `yaml:"base_url"`

	// Referer is sent as the HTTP-Referer header (optional).
	Referer string `yaml:"referer"`

	// Title is sent as the X-Title header (optional).
	Title string `yaml:"title"`

	// Timeout is the per-request HTTP timeout as a duration string.
	Timeout string `yaml:"timeout"`

	// APIKeys lists the credentials the pool rotates across. At least one is
	// required. Use ${VAR} expansion to keep keys out of the file.
	APIKeys []string `yaml:"api_keys"`

	// CooldownInitial is the cooldown after a credential's first failure.
	// Default: "10s".
	CooldownInitial string `yaml:"cooldown_initial"`

	// CooldownMax caps the exponential cooldown. Default: "10m".
	CooldownMax string `yaml:"cooldown_max"`
}

// FetchConfig bounds the message window handed to summarization.
type FetchConfig struct {
	// MaxMessages caps messages per window. Default: 100.
	MaxMessages int `yaml:"max_messages"`

	// MaxChars caps the cumulative character count per window. Default: 500.
	MaxChars int `yaml:"max_chars"`
}

// SchedulerConfig controls the dispatch tick.
type SchedulerConfig struct {
	// Tick is the due-job polling cadence as a duration string. Default: "30s".
	Tick string `yaml:"tick"`

	// Workers bounds concurrent job runs within a tick. Default: 4.
	Workers int `yaml:"workers"`

	// JobTimeout bounds one job run as a duration string. Default: "3m".
	JobTimeout string `yaml:"job_timeout"`

	// MinIntervalSeconds is the smallest accepted schedule interval.
	// Default: 60.
	MinIntervalSeconds int64 `yaml:"min_interval_seconds"`

	// MaxIntervalSeconds is the largest accepted schedule interval.
	// Default: 86400.
	MaxIntervalSeconds int64 `yaml:"max_interval_seconds"`
}

// SessionsConfig controls interactive session expiry.
type SessionsConfig struct {
	// TTL is how long a pending exchange survives as a duration string.
	// Default: "10m".
	TTL string `yaml:"ttl"`
}

// GatewayConfig configures the HTTP operator surface.
type GatewayConfig struct {
	// Bind is the listen address. Default: "127.0.0.1:8080".
	Bind string `yaml:"bind"`

	// BearerToken protects /status and /metrics. Empty leaves them unmounted.
	BearerToken string `yaml:"bearer_token"`
}

// TracingConfig configures the optional OTLP trace exporter.
type TracingConfig struct {
	// Endpoint is the OTLP/HTTP collector endpoint (host:port). Empty
	// disables tracing.
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`
}

// defaults fills zero-value fields with sensible defaults.
func (c *Config) defaults() {
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Summarizer.CooldownInitial == "" {
		c.Summarizer.CooldownInitial = "10s"
	}
	if c.Summarizer.CooldownMax == "" {
		c.Summarizer.CooldownMax = "10m"
	}
	if c.Scheduler.Tick == "" {
		c.Scheduler.Tick = "30s"
	}
	if c.Scheduler.JobTimeout == "" {
		c.Scheduler.JobTimeout = "3m"
	}
	if c.Sessions.TTL == "" {
		c.Sessions.TTL = "10m"
	}
	if c.Gateway.Bind == "" {
		c.Gateway.Bind = "127.0.0.1:8080"
	}
}
