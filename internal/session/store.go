// Package session keeps the transient per-conversation intake state.
package session

import (
	"context"

	"intake-agent/internal/domain"
)

// Store holds one Session per active conversation. Implementations must be
// safe for concurrent use; operations on distinct conversation IDs are
// independent and need no coordination.
type Store interface {
	// Get returns the session for conversationID, or nil if none exists.
	Get(ctx context.Context, conversationID string) (*domain.Session, error)

	// Put creates or replaces the session keyed by its ConversationID.
	Put(ctx context.Context, sess *domain.Session) error

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, conversationID string) error
}
