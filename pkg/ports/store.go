package ports

import (
	"context"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// RecordStore is the remote question store, scoped by tenant.
// Implementations must treat the tenant as an isolation boundary.
type RecordStore interface {
	// List returns every question of the tenant in a stable order.
	List(ctx context.Context, tenant string) ([]domain.Record, error)

	// Create persists a new question and returns it with its assigned id.
	Create(ctx context.Context, tenant string, rec domain.Record) (domain.Record, error)

	// Update applies a partial update and returns the stored result.
	// Returns domain.ErrRecordNotFound if the id does not exist.
	Update(ctx context.Context, tenant, id string, patch domain.RecordPatch) (domain.Record, error)

	// Delete removes a question.
	// Returns domain.ErrRecordNotFound if the id does not exist.
	Delete(ctx context.Context, tenant, id string) error
}

// ConversationReader lists recorded conversations for the conversation screen.
type ConversationReader interface {
	ListConversations(ctx context.Context, tenant string) ([]domain.Conversation, error)
}

// ConversationWriter records a conversation. Stores backing the HTTP server
// implement it so chat runtimes can report completed conversations.
type ConversationWriter interface {
	AddConversation(ctx context.Context, tenant string, c domain.Conversation) (domain.Conversation, error)
}
