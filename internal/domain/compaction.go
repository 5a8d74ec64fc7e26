package domain

// Compact returns a trimmed copy of the context that keeps the leading
// System message (if any) plus the last keepPairs user/assistant exchanges,
// dropping everything older. This is a fixed, simplified stand-in for the
// original's full breakpoint boolean-algebra: rather than letting callers
// express arbitrary keep/drop predicates over message kind, role and
// position, we hardcode the one policy the orchestrator actually needs —
// bound context growth on long-running conversations.
//
// A pair is one User message plus every Assistant and Tool message that
// follows it up to the next User message, so a Tool message is never kept
// without the Assistant message whose call id it answers.
func (c Context) Compact(keepPairs int) Context {
	if keepPairs <= 0 || len(c.Messages) == 0 {
		return c
	}

	var system *ContextMessage
	rest := c.Messages
	if c.Messages[0].Kind == ContextMessageContent && c.Messages[0].Role == RoleSystem {
		s := c.Messages[0]
		system = &s
		rest = c.Messages[1:]
	}

	groups := groupIntoTurns(rest)
	if len(groups) > keepPairs {
		groups = groups[len(groups)-keepPairs:]
	}

	var kept []ContextMessage
	if system != nil {
		kept = append(kept, *system)
	}
	for _, g := range groups {
		kept = append(kept, g...)
	}
	c.Messages = kept
	return c
}

// groupIntoTurns partitions messages into turns, where a turn starts at
// every User content message and runs through the Assistant/Tool messages
// that follow it, up to (not including) the next User message.
func groupIntoTurns(messages []ContextMessage) [][]ContextMessage {
	var groups [][]ContextMessage
	var current []ContextMessage
	for _, msg := range messages {
		if msg.Kind == ContextMessageContent && msg.Role == RoleUser {
			if len(current) > 0 {
				groups = append(groups, current)
			}
			current = []ContextMessage{msg}
			continue
		}
		current = append(current, msg)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}
