// Package openrouter implements a summarize.Backend over the OpenRouter
// chat-completions API. Reasoning models wrap their deliberation in a
// </think> block; only the text after it is the summary.
package openrouter

import (
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/recapd/recapd/internal/summarize"
)

// Interface guard.
var _ summarize.Backend = (*Backend)(nil)

// Backend calls the OpenRouter API with whichever credential each call
// supplies. It is safe for concurrent use.
type Backend struct {
	config Config
	client *http.Client
}

// New creates a Backend from the given configuration.
//
// The client uses transport-level timeouts (dial + TLS + response header)
// instead of http.Client.Timeout; overall call duration is governed by the
// caller's context.
func New(cfg Config) (*Backend, error) {
	cfg.defaults()

	if err := validate(cfg); err != nil {
		return nil, err
	}

	timeout, err := cfg.parsedTimeout()
	if err != nil {
		return nil, fmt.Errorf("openrouter: invalid timeout %q: %w", cfg.Timeout, err)
	}

	return &Backend{
		config: cfg,
		client: &http.Client{
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
			},
		},
	}, nil
}

// validate checks configuration fields after defaults are applied.
func validate(cfg Config) error {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("openrouter: invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("openrouter: base_url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("openrouter: base_url must include a host")
	}
	return nil
}

// Model returns the configured model identifier.
func (b *Backend) Model() string {
	return b.config.Model
}
