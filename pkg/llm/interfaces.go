// Package llm provides OpenAI-compatible LLM client functionality used for
// transcript extraction and ambiguous-name inference.
package llm

import (
	"context"
)

// Client is the interface for LLM chat-completion operations.
// Use it for dependency injection to enable mocking in tests.
type Client interface {
	// GenerateResponse generates a chat completion response.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// Ensure OpenAIClient implements Client at compile time.
var _ Client = (*OpenAIClient)(nil)
