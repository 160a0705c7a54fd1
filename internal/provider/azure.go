package provider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"

	"github.com/petasbytes/go-assistant/memory"
	"github.com/petasbytes/go-assistant/tools"
)

// AzureConfig configures an AzureClient. Empty fields take the package defaults.
type AzureConfig struct {
	Endpoint       string
	APIVersion     string
	APIKey         string
	Deployment     string
	EmbeddingModel string
	// Dimensions is sent with embedding requests when > 0.
	Dimensions int
	// Options are appended after the Azure options; tests use them to point
	// the client at a local server.
	Options []option.RequestOption
}

// AzureClient talks to Azure OpenAI chat completions and embeddings.
type AzureClient struct {
	client         openai.Client
	deployment     string
	embeddingModel string
	dimensions     int
}

func NewAzureClient(cfg AzureConfig) *AzureClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Deployment == "" {
		cfg.Deployment = DefaultDeployment
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	opts := []option.RequestOption{
		azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
		azure.WithAPIKey(cfg.APIKey),
	}
	opts = append(opts, cfg.Options...)
	return &AzureClient{
		client:         openai.NewClient(opts...),
		deployment:     cfg.Deployment,
		embeddingModel: cfg.EmbeddingModel,
		dimensions:     cfg.Dimensions,
	}
}

// Complete sends req as a chat completion against the configured deployment.
func (c *AzureClient) Complete(ctx context.Context, req Request) (*Reply, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.deployment,
		Messages: toOpenAIMessages(req.System, req.Messages),
	}
	if len(req.Tools) > 0 {
		defs, err := toOpenAITools(req.Tools)
		if err != nil {
			return nil, err
		}
		params.Tools = defs
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("azure chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	msg := resp.Choices[0].Message
	reply := &Reply{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, memory.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	log.Debug().
		Str("deployment", c.deployment).
		Str("finish_reason", resp.Choices[0].FinishReason).
		Int("tool_calls", len(reply.ToolCalls)).
		Msg("azure: completion received")
	return reply, nil
}

// Embed returns the embedding of text using the configured embedding model.
func (c *AzureClient) Embed(ctx context.Context, text string) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(c.embeddingModel),
	}
	if c.dimensions > 0 {
		params.Dimensions = openai.Int(int64(c.dimensions))
	}
	resp, err := c.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("azure embedding: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ErrNoEmbedding
	}
	src := resp.Data[0].Embedding
	vec := make([]float32, len(src))
	for i, v := range src {
		vec[i] = float32(v)
	}
	return vec, nil
}

func toOpenAIMessages(system string, msgs []memory.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, m := range msgs {
		switch m.Role {
		case memory.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case memory.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case memory.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		case memory.RoleAssistant:
			if !m.HasToolCalls() {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			asst := openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				asst.Content.OfString = openai.String(m.Content)
			}
			for _, tc := range m.ToolCalls {
				asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst})
		}
	}
	return out
}

func toOpenAITools(defs []tools.ToolDefinition) ([]openai.ChatCompletionToolParam, error) {
	out := make([]openai.ChatCompletionToolParam, 0, len(defs))
	for _, d := range defs {
		schema, err := d.SchemaMap()
		if err != nil {
			return nil, fmt.Errorf("schema for %q: %w", d.Name, err)
		}
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters:  openai.FunctionParameters(schema),
			},
		})
	}
	return out, nil
}
