package windowing_test

import (
	"github.com/petasbytes/go-assistant/internal/windowing"
	"github.com/petasbytes/go-assistant/memory"
)

// User text message constructor
func User(text string) memory.Message { return memory.UserMessage(text) }

// Assistant text message constructor
func Asst(text string) memory.Message { return memory.AssistantMessage(text) }

// Call builds an assistant message requesting the given call ids (empty args).
func Call(ids ...string) memory.Message {
	m := memory.Message{Role: memory.RoleAssistant}
	for _, id := range ids {
		m.ToolCalls = append(m.ToolCalls, memory.ToolCall{ID: id})
	}
	return m
}

// Result builds a tool message answering id.
func Result(id, content string) memory.Message { return memory.ToolResult(id, content) }

// groupsEqual is a small utility used by grouping tests.
func groupsEqual(got, want []windowing.Group) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
