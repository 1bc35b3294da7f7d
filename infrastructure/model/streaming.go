package model

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrStreamClosed indicates the stream has been closed.
	ErrStreamClosed = errors.New("stream closed")

	// ErrStreamingNotSupported indicates the provider cannot stream.
	ErrStreamingNotSupported = errors.New("streaming not supported")
)

// StreamingProvider extends Provider with incremental delivery.
type StreamingProvider interface {
	Provider

	// GenerateStream streams the completion. Chunks arrive in order;
	// the stream returns io.EOF from Next when complete.
	GenerateStream(ctx context.Context, req Request) (Stream, error)
}

// Stream delivers a response incrementally.
type Stream interface {
	// Next returns the next chunk, or io.EOF when the stream ends.
	Next() (Chunk, error)

	// Close releases the underlying connection.
	Close() error
}

// Chunk is one incremental piece of generated text.
type Chunk struct {
	// Text is the incremental content.
	Text string `json:"text"`

	// FinishReason is set on the final chunk when the provider
	// reports one.
	FinishReason string `json:"finish_reason,omitempty"`
}

// GenerateStream implements StreamingProvider for OpenAI via
// server-sent events.
func (p *OpenAIProvider) GenerateStream(ctx context.Context, req Request) (Stream, error) {
	openAIReq := openAIChatRequest{
		Model:       p.model,
		Messages:    p.messages(req),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      true,
	}

	body, err := json.Marshal(openAIReq)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrGeneration, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrGeneration, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", ErrGeneration, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			Provider: p.Name(),
			Status:   resp.StatusCode,
			Message:  strings.TrimSpace(string(respBody)),
		}
	}

	return &sseStream{
		body:    resp.Body,
		scanner: bufio.NewScanner(resp.Body),
	}, nil
}

// sseStream parses OpenAI-style server-sent events.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	closed  bool
}

type sseDelta struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Next returns the next chunk of streamed content.
func (s *sseStream) Next() (Chunk, error) {
	if s.closed {
		return Chunk{}, ErrStreamClosed
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return Chunk{}, io.EOF
		}

		var delta sseDelta
		if err := json.Unmarshal([]byte(data), &delta); err != nil {
			return Chunk{}, fmt.Errorf("%w: decode stream chunk: %v", ErrGeneration, err)
		}
		if len(delta.Choices) == 0 {
			continue
		}

		choice := delta.Choices[0]
		if choice.Delta.Content == "" && choice.FinishReason == "" {
			continue
		}
		return Chunk{
			Text:         choice.Delta.Content,
			FinishReason: choice.FinishReason,
		}, nil
	}

	if err := s.scanner.Err(); err != nil {
		return Chunk{}, fmt.Errorf("%w: stream read: %v", ErrGeneration, err)
	}
	return Chunk{}, io.EOF
}

// Close closes the underlying response body.
func (s *sseStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

// CollectStream drains a stream into a single response text.
func CollectStream(stream Stream) (string, error) {
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(chunk.Text)
	}
}
