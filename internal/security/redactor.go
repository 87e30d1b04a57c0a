// Package security keeps backend credentials out of log output and status
// responses. Every log record passes through the redactor, so a secret that
// reaches a log call by accident never reaches disk.
package security

import (
	"regexp"
	"strings"
	"sync"

	"github.com/recapd/recapd/internal/credential"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// secretKeyPattern matches map keys that likely contain secrets.
var secretKeyPattern = regexp.MustCompile(`(?i)(secret|token|password|key|api_key|credential)`)

// Redactor replaces secret values in strings and maps with a redaction
// placeholder. It supports both regex pattern matching (for known API key
// formats) and literal value matching (for the keys loaded from config).
// All methods are safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor creates a Redactor pre-loaded with default patterns for the
// key formats this daemon handles.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: DefaultPatterns(),
	}
}

// AddPattern adds a compiled regex pattern to the redactor.
func (r *Redactor) AddPattern(pattern *regexp.Regexp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
}

// AddLiteral adds a literal secret value that should be redacted on sight.
// Empty strings are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// SyncSlots replaces all literal values with the secrets of the given
// credential slots. Called once at startup after the pool is built.
func (r *Redactor) SyncSlots(slots []credential.Slot) {
	values := make([]string, 0, len(slots))
	for _, s := range slots {
		if s.Secret != "" {
			values = append(values, s.Secret)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = values
}

// Redact replaces all known secret patterns and literal values in s
// with RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	// Apply regex patterns first.
	for _, p := range patterns {
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}

	// Apply literal replacements.
	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, RedactPlaceholder)
		}
	}

	return s
}

// RedactMap walks a map and replaces values whose keys match common secret
// key names (secret, token, password, key, api_key, credential).
// This is used by the status endpoint.
func (r *Redactor) RedactMap(m map[string]any) {
	for k, v := range m {
		if secretKeyPattern.MatchString(k) {
			if s, ok := v.(string); ok && s != "" {
				m[k] = RedactPlaceholder
				continue
			}
			// Fall through to handle nested maps/slices under secret-named keys.
		}
		switch val := v.(type) {
		case map[string]any:
			r.RedactMap(val)
		case []any:
			for _, item := range val {
				if sub, ok := item.(map[string]any); ok {
					r.RedactMap(sub)
				}
			}
		case string:
			if redacted := r.Redact(val); redacted != val {
				m[k] = redacted
			}
		}
	}
}

// DefaultPatterns returns compiled regex patterns for common API key formats.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// OpenRouter: sk-or-v1-...
		regexp.MustCompile(`sk-or-v1-[a-fA-F0-9]{16,}`),
		// OpenAI-style: sk-... (at least 20 chars after prefix)
		regexp.MustCompile(`sk-[a-zA-Z0-9\-]{20,}`),
		// Telegram bot tokens: <digits>:<35 chars>
		regexp.MustCompile(`\b[0-9]{8,10}:[a-zA-Z0-9_-]{35}\b`),
		// Bearer tokens in dumped headers.
		regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]{16,}=*`),
	}
}
