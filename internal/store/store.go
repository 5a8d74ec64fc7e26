// Package store persists Conversations. Operations mirror spec.md §4.4
// exactly: upsert, get, list (non-archived only), archive, set_title.
// Conversations are archived, never deleted, so history stays auditable —
// the same philosophy forge_app/src/repo/conversation.rs's diesel-backed
// repository follows (an `archived` boolean column, no DELETE statement
// anywhere in that file).
package store

import (
	"context"

	"github.com/simonyos/zcode-core/internal/domain"
)

// ConversationStore is the persistence boundary the facade depends on.
// Storage errors propagate as fatal for the current turn but never corrupt
// the prior row — every write here is one statement against the backing
// database.
type ConversationStore interface {
	// Upsert inserts a new row when id is nil (generating one), or
	// overwrites an existing row's content and updated_at otherwise.
	Upsert(ctx context.Context, conversationCtx domain.Context, id *domain.ConversationId) (domain.Conversation, error)
	Get(ctx context.Context, id domain.ConversationId) (domain.Conversation, error)
	// List returns only non-archived conversations, in no guaranteed order.
	List(ctx context.Context) ([]domain.Conversation, error)
	Archive(ctx context.Context, id domain.ConversationId) (domain.Conversation, error)
	SetTitle(ctx context.Context, id domain.ConversationId, title string) (domain.Conversation, error)
}
