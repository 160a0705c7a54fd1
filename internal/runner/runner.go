package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/petasbytes/go-assistant/internal/provider"
	"github.com/petasbytes/go-assistant/internal/telemetry"
	"github.com/petasbytes/go-assistant/internal/windowing"
	"github.com/petasbytes/go-assistant/memory"
	"github.com/petasbytes/go-assistant/tools"
)

// Augmenter rewrites the user's utterance before it enters the conversation.
type Augmenter interface {
	Augment(ctx context.Context, utterance string) (string, error)
}

type Runner struct {
	Model provider.ChatModel
	// Tools may be nil or empty; the model is then sent no tool schemas.
	Tools *tools.Registry
	// Preamble is sent as the system message on every call.
	Preamble string
	// MaxIterations bounds model calls per turn; <= 0 means unbounded.
	MaxIterations int
	// TokenBudget trims the sent history to whole groups; <= 0 sends everything.
	TokenBudget int
	Temperature *float64
	MaxTokens   int64
	Augmenter   Augmenter
	// Counter defaults to windowing.HeuristicCounter.
	Counter windowing.TokenCounter
}

func New(model provider.ChatModel, reg *tools.Registry) *Runner {
	return &Runner{Model: model, Tools: reg}
}

// Respond runs one user turn to completion and returns the model's final text
// together with the extended conversation. conv is never modified; on error
// the caller keeps its conversation as it was.
func (r *Runner) Respond(ctx context.Context, conv memory.Conversation, utterance string) (string, memory.Conversation, error) {
	ctx, turnID := telemetry.EnsureTurnID(ctx)
	logger := log.With().Str("turn_id", turnID).Logger()

	// Stored sessions come from outside the process.
	if err := conv.Validate(); err != nil {
		return "", conv, err
	}

	if r.Augmenter != nil {
		augmented, err := r.Augmenter.Augment(ctx, utterance)
		if err != nil {
			if errors.Is(err, provider.ErrEmbeddingFailed) {
				return "", conv, &InvocationError{Stage: "embedding", Err: err}
			}
			return "", conv, fmt.Errorf("augment: %w", err)
		}
		utterance = augmented
	}

	work := conv.Clone()
	work = append(work, memory.UserMessage(utterance))

	for calls := 0; r.MaxIterations <= 0 || calls < r.MaxIterations; calls++ {
		reply, err := r.RunOneStep(ctx, work)
		if err != nil {
			return "", conv, err
		}

		if len(reply.ToolCalls) == 0 {
			work = append(work, memory.AssistantMessage(reply.Content))
			logger.Debug().Int("model_calls", calls+1).Msg("runner: turn complete")
			return reply.Content, work, nil
		}

		// Only the first call is executed and recorded, so every recorded
		// call has exactly one answering tool message.
		call := reply.ToolCalls[0]
		if n := len(reply.ToolCalls); n > 1 {
			logger.Warn().Int("tool_calls", n).Str("tool", call.Name).Msg("runner: ignoring all but the first tool call")
		}
		work = append(work, memory.AssistantToolCall(call))

		result, err := r.execTool(ctx, call)
		if err != nil {
			return "", conv, err
		}
		work = append(work, memory.ToolResult(call.ID, result))
	}

	logger.Warn().Int("limit", r.MaxIterations).Msg("runner: loop limit reached")
	return "", conv, &LoopLimitError{Limit: r.MaxIterations}
}

// RunOneStep sends the budgeted window of conv to the model and returns its reply.
func (r *Runner) RunOneStep(ctx context.Context, conv memory.Conversation) (*provider.Reply, error) {
	ctx, turnID := telemetry.EnsureTurnID(ctx)

	window := []memory.Message(conv)
	if r.TokenBudget > 0 {
		counter := r.Counter
		if counter == nil {
			counter = windowing.HeuristicCounter{}
		}
		var stats windowing.Stats
		window, stats = windowing.PrepareSendWindow(conv, r.TokenBudget, counter)

		telemetry.Emit("window_prepared", map[string]any{
			"turn_id":            turnID,
			"budget":             stats.Budget,
			"total_estimated":    stats.Total,
			"included_groups":    stats.IncludedGroups,
			"skipped_groups":     stats.SkippedGroups,
			"over_budget_newest": stats.OverBudgetNewest,
			"no_user_start":      stats.NoUserStart,
		})
		log.Debug().
			Str("turn_id", turnID).
			Int("budget", stats.Budget).
			Int("est_total", stats.Total).
			Int("groups_in", stats.IncludedGroups).
			Int("groups_skip", stats.SkippedGroups).
			Msg("runner: window prepared")

		if stats.OverBudgetNewest || stats.NoUserStart {
			return nil, fmt.Errorf("windowing: %w (budget %d)", ErrWindowOverBudget, r.TokenBudget)
		}
	}

	req := provider.Request{
		System:      r.Preamble,
		Messages:    window,
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
	}
	if r.Tools.Len() > 0 {
		req.Tools = r.Tools.Definitions()
	}

	start := time.Now()
	reply, err := r.Model.Complete(ctx, req)
	fields := map[string]any{
		"turn_id":     turnID,
		"messages":    len(window),
		"tools":       len(req.Tools),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["error"] = "upstream error"
		telemetry.Emit("model_call", fields)
		return nil, &InvocationError{Stage: "chat completion", Err: err}
	}
	fields["tool_calls"] = len(reply.ToolCalls)
	fields["output_size"] = len(reply.Content)
	fields["error"] = nil
	telemetry.Emit("model_call", fields)
	return reply, nil
}

func (r *Runner) execTool(ctx context.Context, call memory.ToolCall) (string, error) {
	turnID, _ := telemetry.TurnIDFromContext(ctx)

	// Helper to emit a tool_exec event
	emit := func(durationMs int64, outputSize int, errStr string) {
		fields := map[string]any{
			"tool_name":   call.Name,
			"duration_ms": durationMs,
			"input_size":  len(call.Arguments),
			"output_size": outputSize,
			"turn_id":     turnID,
		}
		if errStr != "" {
			fields["error"] = errStr
		} else {
			fields["error"] = nil
		}
		telemetry.Emit("tool_exec", fields)
	}

	start := time.Now()
	out, err := r.Tools.Execute(call.Name, json.RawMessage(call.Arguments))
	if err != nil {
		// Only the error kind goes to telemetry; arguments may hold user data.
		kind := "tool error"
		var execErr *tools.ExecutionError
		if errors.As(err, &execErr) {
			kind = execErr.Kind.Error()
		}
		emit(time.Since(start).Milliseconds(), 0, kind)
		log.Warn().Err(err).Str("turn_id", turnID).Str("tool", call.Name).Msg("runner: tool execution failed")
		return "", err
	}
	emit(time.Since(start).Milliseconds(), len(out), "")
	log.Info().Str("turn_id", turnID).Str("tool", call.Name).Msg("runner: tool executed")
	return out, nil
}
