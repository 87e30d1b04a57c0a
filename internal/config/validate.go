package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// Validate checks the structural validity of a Config after defaults are
// applied. All problems are reported together so an operator fixes the file
// in one pass.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("config: invalid log_level %q", cfg.LogLevel))
	}

	errs = append(errs, validateSummarizer(&cfg.Summarizer)...)
	errs = append(errs, validateScheduler(&cfg.Scheduler)...)

	if _, err := time.ParseDuration(cfg.Sessions.TTL); err != nil {
		errs = append(errs, fmt.Errorf("config: invalid sessions.ttl %q: %w", cfg.Sessions.TTL, err))
	}
	if _, err := net.ResolveTCPAddr("tcp", cfg.Gateway.Bind); err != nil {
		errs = append(errs, fmt.Errorf("config: invalid gateway.bind %q", cfg.Gateway.Bind))
	}
	if cfg.Fetch.MaxMessages < 0 {
		errs = append(errs, fmt.Errorf("config: fetch.max_messages must not be negative, got %d", cfg.Fetch.MaxMessages))
	}
	if cfg.Fetch.MaxChars < 0 {
		errs = append(errs, fmt.Errorf("config: fetch.max_chars must not be negative, got %d", cfg.Fetch.MaxChars))
	}

	return errors.Join(errs...)
}

func validateSummarizer(s *SummarizerConfig) []error {
	var errs []error

	if len(s.APIKeys) == 0 {
		errs = append(errs, errors.New("config: summarizer.api_keys requires at least one key"))
	}
	for i, key := range s.APIKeys {
		if key == "" {
			errs = append(errs, fmt.Errorf("config: summarizer.api_keys[%d] is empty", i))
		}
	}

	if s.Timeout != "" {
		if _, err := time.ParseDuration(s.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("config: invalid summarizer.timeout %q: %w", s.Timeout, err))
		}
	}
	if _, err := time.ParseDuration(s.CooldownInitial); err != nil {
		errs = append(errs, fmt.Errorf("config: invalid summarizer.cooldown_initial %q: %w", s.CooldownInitial, err))
	}
	if _, err := time.ParseDuration(s.CooldownMax); err != nil {
		errs = append(errs, fmt.Errorf("config: invalid summarizer.cooldown_max %q: %w", s.CooldownMax, err))
	}

	return errs
}

func validateScheduler(s *SchedulerConfig) []error {
	var errs []error

	if d, err := time.ParseDuration(s.Tick); err != nil {
		errs = append(errs, fmt.Errorf("config: invalid scheduler.tick %q: %w", s.Tick, err))
	} else if d < time.Second {
		errs = append(errs, fmt.Errorf("config: scheduler.tick %q is below 1s", s.Tick))
	}

	if _, err := time.ParseDuration(s.JobTimeout); err != nil {
		errs = append(errs, fmt.Errorf("config: invalid scheduler.job_timeout %q: %w", s.JobTimeout, err))
	}
	if s.Workers < 0 {
		errs = append(errs, fmt.Errorf("config: scheduler.workers must not be negative, got %d", s.Workers))
	}
	if s.MinIntervalSeconds < 0 || s.MaxIntervalSeconds < 0 {
		errs = append(errs, errors.New("config: scheduler interval bounds must not be negative"))
	}
	if s.MinIntervalSeconds > 0 && s.MaxIntervalSeconds > 0 && s.MinIntervalSeconds > s.MaxIntervalSeconds {
		errs = append(errs, fmt.Errorf("config: scheduler.min_interval_seconds %d exceeds max_interval_seconds %d",
			s.MinIntervalSeconds, s.MaxIntervalSeconds))
	}

	return errs
}
