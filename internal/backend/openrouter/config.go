package openrouter

import "time"

const (
	defaultModel   = "deepseek/deepseek-r1:free"
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultTimeout = "120s"
)

// Config holds the YAML configuration for the OpenRouter summarization backend.
// API keys are not configured here; they arrive per call from the credential
// pool.
type Config struct {
	// Model is the model identifier. Default: "deepseek/deepseek-r1:free".
	Model string `yaml:"model"`

	// BaseURL is the OpenRouter API base URL.
	// Default: "https://openrouter.ai/api/v1"
	BaseURL string `yaml:"base_url"`

	// Referer is sent as the HTTP-Referer header (optional).
	Referer string `yaml:"referer"`

	// Title is sent as the X-Title header (optional).
	Title string `yaml:"title"`

	// Timeout is the HTTP request timeout as a duration string.
	// Default: "120s"
	Timeout string `yaml:"timeout"`
}

// defaults fills in zero-value fields with sensible defaults.
func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout == "" {
		c.Timeout = defaultTimeout
	}
}

// parsedTimeout parses Timeout as a time.Duration.
func (c *Config) parsedTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Timeout)
}
