package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAIProvider implements Provider against the OpenAI chat
// completions API. Any OpenAI-compatible endpoint works via BaseURL.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(config Config) *OpenAIProvider {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	model := config.Model
	if model == "" {
		model = "gpt-4o"
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &OpenAIProvider{
		apiKey:  config.APIKey,
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
}

type openAIChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) messages(req Request) []openAIMessage {
	var msgs []openAIMessage
	if req.SystemMessage != "" {
		msgs = append(msgs, openAIMessage{Role: "system", Content: req.SystemMessage})
	}
	return append(msgs, openAIMessage{Role: "user", Content: req.Prompt})
}

// Generate implements the Provider interface.
func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (Response, error) {
	openAIReq := openAIChatRequest{
		Model:       p.model,
		Messages:    p.messages(req),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	body, err := json.Marshal(openAIReq)
	if err != nil {
		return Response{}, fmt.Errorf("%w: marshal request: %v", ErrGeneration, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("%w: create request: %v", ErrGeneration, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("%w: request failed: %v", ErrGeneration, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("%w: read response: %v", ErrGeneration, err)
	}

	var chatResp openAIChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return Response{}, fmt.Errorf("%w: decode response (status %d): %v", ErrGeneration, resp.StatusCode, err)
	}

	if chatResp.Error != nil {
		return Response{}, &APIError{
			Provider: p.Name(),
			Status:   resp.StatusCode,
			Type:     chatResp.Error.Type,
			Message:  chatResp.Error.Message,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return Response{}, &APIError{
			Provider: p.Name(),
			Status:   resp.StatusCode,
			Message:  fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}
	if len(chatResp.Choices) == 0 {
		return Response{}, &APIError{
			Provider: p.Name(),
			Status:   resp.StatusCode,
			Message:  "no choices in response",
		}
	}

	return Response{
		Text:  chatResp.Choices[0].Message.Content,
		Model: chatResp.Model,
		Usage: Usage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		},
	}, nil
}
