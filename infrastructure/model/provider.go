// Package model provides generation-port implementations: LLM providers
// that turn a prompt into text.
package model

import (
	"context"
	"time"
)

// Provider defines the interface for text generation.
type Provider interface {
	// Generate produces text for the given request. Provider failures
	// (network, quota, malformed response) are reported as errors
	// wrapping ErrGeneration, never as silently empty text.
	Generate(ctx context.Context, req Request) (Response, error)

	// Name returns the provider name for logging.
	Name() string
}

// Request is a single generation request.
type Request struct {
	// Prompt is the user prompt.
	Prompt string `json:"prompt"`

	// SystemMessage optionally sets the system context.
	SystemMessage string `json:"system_message,omitempty"`

	// Temperature is the sampling temperature. Zero means the
	// provider's default.
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens bounds the completion length. Zero means the
	// provider's default.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// Response is a completed generation.
type Response struct {
	// Text is the generated text.
	Text string `json:"text"`

	// Model is the model that produced the text.
	Model string `json:"model,omitempty"`

	// Usage contains token accounting when the provider reports it.
	Usage Usage `json:"usage"`
}

// Usage contains token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Config contains common provider configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// Timeout bounds a single HTTP call. Zero uses the provider default.
	Timeout time.Duration
}
