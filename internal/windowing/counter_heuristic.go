package windowing

import (
	"github.com/petasbytes/go-assistant/internal/metrics"
	"github.com/petasbytes/go-assistant/memory"
)

// TokenCounter estimates input-token cost for messages or groups.
type TokenCounter interface {
	CountMessage(m memory.Message) int
	CountGroup(g Group, all []memory.Message) int
}

// HeuristicCounter is the current default deterministic estimator.
// Rules:
//   - content and tool-call name/arguments cost their rune count
//   - every message costs a fixed overhead, plus the same overhead per tool call
type HeuristicCounter struct{}

// Fixed per-part overhead for deterministic counts; changing this requires updating the guard test.
const blockOverhead = 4

func (HeuristicCounter) CountMessage(m memory.Message) int {
	return metrics.CountMessage(m).Runes + blockOverhead*(1+len(m.ToolCalls))
}

func (h HeuristicCounter) CountGroup(g Group, all []memory.Message) int {
	total := 0
	for i := g.Start; i < g.End && i < len(all); i++ {
		total += h.CountMessage(all[i])
	}
	return total
}
