// Package windowing trims a conversation to a token budget without ever
// separating a tool call from its results.
package windowing

import (
	"github.com/rs/zerolog/log"

	"github.com/petasbytes/go-assistant/memory"
)

// GroupKind denotes the atomic unit type when preparing a send window.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupPair
)

// Group describes a contiguous span of messages [Start, End) in the original slice.
// Kind indicates whether it is a singleton or a validated call/result pair.
type Group struct {
	Kind  GroupKind
	Start int // inclusive index into msgs
	End   int // exclusive index into msgs
}

// GroupBlocks groups messages into atomic units that preserve tool-call pairs.
// Invariants:
//   - A pair is an assistant message with tool calls followed immediately by
//     exactly one tool message per call.
//   - The tool messages must answer every call id, once each, in any order.
//   - Anything else falls back to singletons.
func GroupBlocks(msgs []memory.Message) []Group {
	groups := make([]Group, 0, len(msgs))
	for i := 0; i < len(msgs); {
		if msgs[i].HasToolCalls() {
			end, reason := pairEnd(msgs, i)
			if reason == "" {
				groups = append(groups, Group{Kind: GroupPair, Start: i, End: end})
				i = end
				continue
			}
			log.Debug().Str("reason", reason).Int("idx", i).Msg("windowing: exclude pair")
		}
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
		i++
	}
	return groups
}

// pairEnd returns the exclusive end of the pair starting at i, or a reason
// code when the calls at i are not fully and exclusively answered.
func pairEnd(msgs []memory.Message, i int) (int, string) {
	want := make(map[string]struct{}, len(msgs[i].ToolCalls))
	for _, tc := range msgs[i].ToolCalls {
		want[tc.ID] = struct{}{}
	}
	end := i + 1 + len(want)
	if end > len(msgs) {
		return 0, "missing_results"
	}
	for j := i + 1; j < end; j++ {
		r := msgs[j]
		if r.Role != memory.RoleTool {
			return 0, "missing_results"
		}
		if _, ok := want[r.ToolCallID]; !ok {
			return 0, "extra_results"
		}
		delete(want, r.ToolCallID)
	}
	return end, ""
}
