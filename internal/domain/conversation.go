package domain

import "time"

// ConversationId uniquely identifies a Conversation across its lifetime.
type ConversationId string

// Conversation is the persisted unit of work: a title, a Context, and the
// archived flag that replaces deletion — conversations are archived, never
// deleted, so that history stays auditable.
type Conversation struct {
	ID        ConversationId `json:"id"`
	Title     string         `json:"title"`
	Context   Context        `json:"context"`
	Archived  bool           `json:"archived"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewConversation starts a fresh, unarchived conversation around ctx.
func NewConversation(id ConversationId, ctx Context, now time.Time) Conversation {
	return Conversation{
		ID:        id,
		Context:   ctx,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithContext returns a copy of the conversation with its Context replaced
// and UpdatedAt advanced. The caller owns deciding what "now" is so that
// store-layer timestamps stay injectable in tests.
func (c Conversation) WithContext(ctx Context, now time.Time) Conversation {
	c.Context = ctx
	c.UpdatedAt = now
	return c
}

// WithTitle returns a copy of the conversation with its title set.
func (c Conversation) WithTitle(title string, now time.Time) Conversation {
	c.Title = title
	c.UpdatedAt = now
	return c
}

// Archive returns a copy of the conversation marked archived. Archiving is
// the only terminal state transition — there is no corresponding delete.
func (c Conversation) Archive(now time.Time) Conversation {
	c.Archived = true
	c.UpdatedAt = now
	return c
}
