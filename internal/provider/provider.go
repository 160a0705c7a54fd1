// Package provider adapts chat-completion and embedding APIs to the
// role/tool-call message model in package memory.
package provider

import (
	"context"
	"errors"

	"github.com/petasbytes/go-assistant/memory"
	"github.com/petasbytes/go-assistant/tools"
)

const (
	DefaultEndpoint       = "https://gu-training-llm.openai.azure.com/"
	DefaultAPIVersion     = "2024-08-01-preview"
	DefaultDeployment     = "gpt-4o"
	DefaultEmbeddingModel = "text-embedding-3-large"
	// DefaultEmbeddingDimensions is the vector size of DefaultEmbeddingModel.
	DefaultEmbeddingDimensions = 3072
	DefaultMaxTokens           = 1024
)

var (
	// ErrNoChoices is returned when a completion carries no choices.
	ErrNoChoices = errors.New("provider: response has no choices")
	// ErrNoEmbedding is returned when an embedding response carries no vector.
	ErrNoEmbedding = errors.New("provider: response has no embedding")
	// ErrEmbeddingFailed marks any failed embedding request, whatever the
	// Embedder implementation.
	ErrEmbeddingFailed = errors.New("provider: embedding request failed")
)

// Request is one chat-completion call.
type Request struct {
	System   string
	Messages []memory.Message
	// Tools is omitted from the upstream request when empty.
	Tools       []tools.ToolDefinition
	Temperature *float64
	// MaxTokens <= 0 leaves the limit to the provider default.
	MaxTokens int64
}

// Reply is the model's answer: text, tool calls, or both.
type Reply struct {
	Content   string
	ToolCalls []memory.ToolCall
}

// ChatModel sends a conversation and returns the model's next message.
type ChatModel interface {
	Complete(ctx context.Context, req Request) (*Reply, error)
}

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
