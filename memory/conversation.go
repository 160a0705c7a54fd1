package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrInvalidConversation marks a conversation that breaks call/result pairing.
var ErrInvalidConversation = errors.New("invalid conversation")

// Conversation is the ordered message history of one session.
type Conversation []Message

// Clone returns a copy that shares no backing arrays with c.
func (c Conversation) Clone() Conversation {
	if c == nil {
		return nil
	}
	out := make(Conversation, len(c))
	for i, m := range c {
		if m.ToolCalls != nil {
			m.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
		}
		out[i] = m
	}
	return out
}

// Validate checks that every tool message answers a call carried by the
// assistant message immediately before its run of tool results.
func (c Conversation) Validate() error {
	var open map[string]struct{}
	for i, m := range c {
		switch {
		case m.Role == RoleTool:
			if open == nil {
				return fmt.Errorf("%w: tool message at %d has no preceding tool call", ErrInvalidConversation, i)
			}
			if _, ok := open[m.ToolCallID]; !ok {
				return fmt.Errorf("%w: tool message at %d answers unknown call %q", ErrInvalidConversation, i, m.ToolCallID)
			}
			delete(open, m.ToolCallID)
		case m.HasToolCalls():
			open = make(map[string]struct{}, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				open[tc.ID] = struct{}{}
			}
		default:
			open = nil
		}
	}
	return nil
}

func LoadConversation(path string) (Conversation, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var msgs Conversation
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func SaveConversation(path string, msgs Conversation) error {
	b, err := json.MarshalIndent(msgs, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
