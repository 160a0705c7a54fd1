package windowing

import (
	"github.com/rs/zerolog/log"

	"github.com/petasbytes/go-assistant/memory"
)

// Stats summarizes the result of window preparation.
//
// Fields:
//   - Total: estimated tokens for included groups only.
//   - Budget: the input token budget used.
//   - IncludedGroups: number of groups included.
//   - SkippedGroups: total groups minus IncludedGroups.
//   - OverBudgetNewest: true when the newest single group alone exceeds Budget.
//   - NoUserStart: true when groups fit but none of the fitting suffixes
//     begins with a user message.
type Stats struct {
	Total            int
	Budget           int
	IncludedGroups   int
	SkippedGroups    int
	OverBudgetNewest bool
	NoUserStart      bool
}

// PrepareSendWindow returns the newest suffix of msgs that fits within budget
// using the TokenCounter, without splitting groups.
//
// Rules:
//   - Include whole groups scanning newest→oldest while total ≤ budget.
//   - If the newest group alone exceeds budget, return an empty window and set OverBudgetNewest.
//   - If budget ≤ 0, return an empty window (OverBudgetNewest set when any groups exist).
//   - The window starts at a user message: leading assistant and tool groups
//     are dropped. If nothing remains, return an empty window and set NoUserStart.
func PrepareSendWindow(msgs []memory.Message, budget int, c TokenCounter) ([]memory.Message, Stats) {
	if len(msgs) == 0 {
		return nil, Stats{Budget: budget}
	}

	groups := GroupBlocks(msgs)
	if budget <= 0 {
		return nil, Stats{Budget: budget, SkippedGroups: len(groups), OverBudgetNewest: true}
	}

	total, included := 0, 0
	startIdx := len(groups)
	costs := make([]int, len(groups))
	for gi := len(groups) - 1; gi >= 0; gi-- {
		cost := c.CountGroup(groups[gi], msgs)
		costs[gi] = cost
		if included == 0 && cost > budget {
			log.Debug().Int("budget", budget).Int("cost", cost).Msg("windowing: newest group over budget")
			return nil, Stats{Budget: budget, SkippedGroups: len(groups), OverBudgetNewest: true}
		}
		if total+cost > budget {
			break
		}
		total += cost
		included++
		startIdx = gi
	}

	for included > 0 && msgs[groups[startIdx].Start].Role != memory.RoleUser {
		total -= costs[startIdx]
		included--
		startIdx++
	}
	if included == 0 {
		log.Debug().Int("budget", budget).Msg("windowing: no user-led window fits")
		return nil, Stats{Budget: budget, SkippedGroups: len(groups), NoUserStart: true}
	}

	return msgs[groups[startIdx].Start:], Stats{
		Total:          total,
		Budget:         budget,
		IncludedGroups: included,
		SkippedGroups:  len(groups) - included,
	}
}
