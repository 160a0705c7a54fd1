package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/petasbytes/go-assistant/memory"
	"github.com/petasbytes/go-assistant/tools"
)

const DefaultAnthropicModel = anthropic.ModelClaude3_7SonnetLatest

// AnthropicConfig configures an AnthropicClient. An empty APIKey falls back to
// ANTHROPIC_API_KEY, which the SDK reads itself.
type AnthropicConfig struct {
	APIKey  string
	Model   string
	Options []option.RequestOption
}

// AnthropicClient maps the ChatModel contract onto the Messages API:
// tool calls become tool_use blocks and tool messages become tool_result blocks.
type AnthropicClient struct {
	client anthropic.Client
	model  anthropic.Model
}

func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	opts = append(opts, cfg.Options...)
	model := anthropic.Model(cfg.Model)
	if cfg.Model == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicClient{client: anthropic.NewClient(opts...), model: model}
}

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (*Reply, error) {
	system, msgs := toAnthropicMessages(req.System, req.Messages)
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if len(req.Tools) > 0 {
		defs, err := toAnthropicTools(req.Tools)
		if err != nil {
			return nil, err
		}
		params.Tools = defs
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	var (
		reply Reply
		text  []string
	)
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			text = append(text, v.Text)
		case anthropic.ToolUseBlock:
			reply.ToolCalls = append(reply.ToolCalls, memory.ToolCall{
				ID:        v.ID,
				Name:      v.Name,
				Arguments: v.JSON.Input.Raw(),
			})
		}
	}
	reply.Content = strings.Join(text, "\n")
	return &reply, nil
}

// toAnthropicMessages lifts system messages into the system blocks and merges
// consecutive tool results into a single user turn.
func toAnthropicMessages(system string, msgs []memory.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var sys []anthropic.TextBlockParam
	if system != "" {
		sys = append(sys, anthropic.TextBlockParam{Text: system})
	}
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for i := 0; i < len(msgs); i++ {
		m := msgs[i]
		switch m.Role {
		case memory.RoleSystem:
			sys = append(sys, anthropic.TextBlockParam{Text: m.Content})
		case memory.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case memory.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				input := json.RawMessage(tc.Arguments)
				if strings.TrimSpace(tc.Arguments) == "" {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    tc.ID,
					Name:  tc.Name,
					Input: input,
				}})
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		case memory.RoleTool:
			var results []anthropic.ContentBlockParamUnion
			for ; i < len(msgs) && msgs[i].Role == memory.RoleTool; i++ {
				results = append(results, anthropic.NewToolResultBlock(msgs[i].ToolCallID, msgs[i].Content, false))
			}
			i--
			out = append(out, anthropic.NewUserMessage(results...))
		}
	}
	return sys, out
}

func toAnthropicTools(defs []tools.ToolDefinition) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		schema, err := d.SchemaMap()
		if err != nil {
			return nil, fmt.Errorf("schema for %q: %w", d.Name, err)
		}
		extra := map[string]any{}
		for _, k := range []string{"required", "additionalProperties"} {
			if v, ok := schema[k]; ok {
				extra[k] = v
			}
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        d.Name,
			Description: anthropic.String(d.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties:  schema["properties"],
				ExtraFields: extra,
			},
		}})
	}
	return out, nil
}
