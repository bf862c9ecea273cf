package tokens

import "persona-chat-client/internal/domain/model"

// Truncate keeps the newest suffix of msgs whose cumulative estimated
// cost fits contextLimit minus reserved completion tokens (reserved<=0
// means the whole context is available). The kept messages preserve
// their relative order. The most recent message is always kept, even
// when it alone exceeds the budget, so a non-empty input never
// truncates to nothing.
func Truncate(msgs []model.Message, c Counter, contextLimit, reserved int) []model.Message {
	budget := contextLimit
	if reserved > 0 {
		budget = contextLimit - reserved
	}

	kept := 0
	total := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		cost := c.Count(msgs[i].Content)
		if kept > 0 && total+cost > budget {
			break
		}
		total += cost
		kept++
	}
	return msgs[len(msgs)-kept:]
}
