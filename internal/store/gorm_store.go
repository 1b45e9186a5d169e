package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ycyw/support-chat-service/internal/domain"
	"github.com/ycyw/support-chat-service/internal/log"
	"github.com/ycyw/support-chat-service/internal/user"
)

type gormStore struct {
	db    *gorm.DB
	users user.Repository
}

// NewGormStore returns a MessageStore backed by the platform database.
func NewGormStore(db *gorm.DB, users user.Repository) MessageStore {
	return &gormStore{db: db, users: users}
}

func (s *gormStore) Store(ctx context.Context, payload domain.SendPayload, senderID int64) (*domain.StoredMessage, error) {
	msg := domain.Message{
		ConversationID: payload.ConversationID,
		SenderID:       senderID,
		Content:        payload.Content,
		SentAt:         time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	senderName := ""
	switch u, err := s.users.GetByID(ctx, senderID); {
	case err != nil:
		// The message is already durable; a failed name lookup only costs
		// the display name on the broadcast.
		log.Ctx(ctx).Warn().Int64(log.FieldUserID, senderID).Err(err).Msg("sender name lookup failed")
	case u != nil:
		senderName = u.Name()
	}

	return &domain.StoredMessage{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		SenderName:     senderName,
		Content:        msg.Content,
		SentAt:         msg.SentAt,
		IsRead:         msg.IsRead,
	}, nil
}
