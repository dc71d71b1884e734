package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// BaseURL is the Groq API base URL
	BaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is the default model for completions
	DefaultModel = "mixtral-8x7b-32768"
	// DefaultTimeout bounds every generator call so operations degrade
	// instead of blocking indefinitely
	DefaultTimeout = 30 * time.Second
)

// ConfigError indicates the client is not usable at all (missing
// credentials). Call sites skip the generator entirely rather than retry.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("groq config error: %s", e.Reason)
}

// TransientError indicates a network failure, timeout, or a retryable API
// status. The call may succeed later; fallbacks apply now.
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("groq transient error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("groq transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// ParseError indicates the API answered but the payload did not contain
// what was asked for (missing field, invalid JSON).
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("groq parse error: missing %q field", e.Field)
	}
	return fmt.Sprintf("groq parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a generator configuration failure.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsTransientError reports whether err is a network/timeout failure.
func IsTransientError(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsParseError reports whether err is a malformed-payload failure.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Client handles all Groq chat-completion interactions
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Config holds configuration for the Groq client
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewClient creates a new Groq API client. A client with no API key is
// still returned; every call on it fails with a ConfigError so call sites
// can fall back locally.
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		model:   config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Enabled reports whether the client holds credentials.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Message represents a message in the chat completion request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is an OpenAI-compatible chat completion request
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	Stream      bool      `json:"stream"`
}

// CompletionChoice represents a choice in the completion response
type CompletionChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	Text         string  `json:"text"` // legacy text-completion fallback
	FinishReason string  `json:"finish_reason"`
}

// CompletionResponse represents the response from the completions API
type CompletionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
}

// Generate sends a single-turn prompt and returns the generated text.
// Errors are always one of ConfigError, TransientError, or ParseError.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", &ConfigError{Reason: "GROQ_API_KEY not set"}
	}

	req := CompletionRequest{
		Model:       c.model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		MaxTokens:   512,
		Temperature: 0.7,
		TopP:        1,
		Stream:      false,
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", &ParseError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	url := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &TransientError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &TransientError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransientError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return "", &ConfigError{Reason: fmt.Sprintf("API rejected credentials (status %d)", resp.StatusCode)}
		}
		return "", &TransientError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", string(respBody)),
		}
	}

	var result CompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &ParseError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return extractChoiceText(&result)
}

// extractChoiceText pulls the generated text out of a completion response,
// accepting both chat and legacy text-completion shapes.
func extractChoiceText(r *CompletionResponse) (string, error) {
	if len(r.Choices) == 0 {
		return "", &ParseError{Err: errors.New("no choices returned from completions API")}
	}
	if r.Choices[0].Message.Content != "" {
		return r.Choices[0].Message.Content, nil
	}
	if r.Choices[0].Text != "" {
		return r.Choices[0].Text, nil
	}
	return "", &ParseError{Err: errors.New("no content found in response")}
}

// HealthCheck verifies the completions API is reachable
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.Generate(ctx, "Say 'ok' if you can hear me.")
	return err
}
