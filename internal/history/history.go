// ABOUTME: Bounds conversation history to a message budget, preserving system messages
// ABOUTME: Pure transformation; never reorders or merges messages

package history

import "github.com/mauromedda/toolagent-go/pkg/ai"

// Bound keeps every system message and the most recent (budget - systemCount)
// other messages, in their original relative order. A non-positive budget
// disables bounding.
//
// Front truncation can leave tool messages whose assistant call was cut;
// those leading orphans are dropped too, since every provider rejects a
// tool result with no preceding call.
func Bound(msgs []ai.Message, budget int) []ai.Message {
	if budget <= 0 || len(msgs) <= budget {
		return dropOrphans(msgs)
	}

	systemCount := 0
	for _, m := range msgs {
		if m.Role == ai.RoleSystem {
			systemCount++
		}
	}
	keep := max(budget-systemCount, 0)
	skip := len(msgs) - systemCount - keep

	out := make([]ai.Message, 0, systemCount+keep)
	for _, m := range msgs {
		if m.Role != ai.RoleSystem && skip > 0 {
			skip--
			continue
		}
		out = append(out, m)
	}
	return dropOrphans(out)
}

// dropOrphans removes tool messages at the start of the non-system segment.
func dropOrphans(msgs []ai.Message) []ai.Message {
	first := -1
	for i, m := range msgs {
		if m.Role != ai.RoleSystem {
			first = i
			break
		}
	}
	if first < 0 || msgs[first].Role != ai.RoleTool {
		return msgs
	}

	out := make([]ai.Message, 0, len(msgs))
	leading := true
	for _, m := range msgs {
		if m.Role == ai.RoleSystem {
			out = append(out, m)
			continue
		}
		if leading && m.Role == ai.RoleTool {
			continue
		}
		leading = false
		out = append(out, m)
	}
	return out
}

// SystemCount reports how many system messages msgs holds.
func SystemCount(msgs []ai.Message) int {
	n := 0
	for _, m := range msgs {
		if m.Role == ai.RoleSystem {
			n++
		}
	}
	return n
}
