// Package store is the message persistence gateway. The broadcast path only
// ever sees the canonical stored form returned from Store.
package store

import (
	"context"

	"github.com/ycyw/support-chat-service/internal/domain"
)

// MessageStore persists an inbound chat message and returns the canonical
// stored form carrying the server-assigned id and timestamp. A failure
// aborts the broadcast step: unpersisted content is never visible to
// subscribers.
type MessageStore interface {
	Store(ctx context.Context, payload domain.SendPayload, senderID int64) (*domain.StoredMessage, error)
}
