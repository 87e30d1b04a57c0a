package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/recapd/recapd/internal/credential"
	"github.com/recapd/recapd/internal/summarize"
)

// apiRequest is the OpenAI-compatible chat completion request body.
type apiRequest struct {
	Model    string       `json:"model"`
	Messages []apiMessage `json:"messages"`
	Stream   bool         `json:"stream"`
}

// apiMessage is an OpenAI-compatible chat message.
type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// apiResponse is the non-streaming OpenAI-compatible response.
type apiResponse struct {
	Choices []apiChoice `json:"choices"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// apiChoice is a single choice in a completion response.
type apiChoice struct {
	Message      apiMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

// Summarize implements summarize.Backend. It sends one non-streaming
// completion request authenticated with the supplied credential.
func (b *Backend) Summarize(ctx context.Context, cred credential.Slot, prompt string) (string, error) {
	apiReq := apiRequest{
		Model: b.config.Model,
		Messages: []apiMessage{
			{Role: "user", Content: prompt},
		},
	}

	resp, err := b.doRequest(ctx, cred, apiReq)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", mapHTTPError(resp.StatusCode, resp.Body)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("openrouter: decoding response: %v: %w", err, summarize.ErrUnavailable)
	}

	if apiResp.Error.Message != "" {
		return "", mapAPIError(apiResp.Error.Message)
	}

	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("openrouter: response had no choices: %w", summarize.ErrUnavailable)
	}

	text := extractFinalAnswer(apiResp.Choices[0].Message.Content)
	if text == "" {
		// Free-tier models occasionally return an empty completion under
		// load; treat it like a transient failure so the pool rotates.
		return "", fmt.Errorf("openrouter: empty completion: %w", summarize.ErrUnavailable)
	}

	return text, nil
}

// doRequest sends an API request and returns the raw HTTP response.
func (b *Backend) doRequest(ctx context.Context, cred credential.Slot, apiReq apiRequest) (*http.Response, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("openrouter: marshaling request: %w", err)
	}

	url := b.config.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openrouter: creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+cred.Secret)

	if b.config.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", b.config.Referer)
	}
	if b.config.Title != "" {
		httpReq.Header.Set("X-Title", b.config.Title)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Network failures are retryable with the next credential.
		return nil, fmt.Errorf("openrouter: sending request: %v: %w", err, summarize.ErrUnavailable)
	}

	return resp, nil
}

// extractFinalAnswer strips a reasoning-model thinking block, returning only
// the text after the closing </think> tag. Content without the tag is
// returned trimmed as-is.
func extractFinalAnswer(content string) string {
	if _, after, found := strings.Cut(content, "</think>"); found {
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(content)
}
