package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/beemapp/beem-server/internal/db"
)

// MessageRepository provides append and ordered-history access for chat
// messages.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Append persists a message row. Ordering within a chat comes from
// (created_at, id) at write time, so each sender's own messages keep their
// submission order.
func (r *MessageRepository) Append(ctx context.Context, m *db.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// History returns the last limit messages of a chat in ascending creation
// order (id as tiebreaker for same-timestamp writes).
func (r *MessageRepository) History(ctx context.Context, chatID int64, limit int) ([]db.Message, error) {
	var messages []db.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// reverse newest-first into ascending order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// CountForChat returns the message total of one chat.
func (r *MessageRepository) CountForChat(ctx context.Context, chatID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("chat_id = ?", chatID).
		Count(&count).Error
	return count, err
}

// Count returns the message total for the stats view.
func (r *MessageRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Message{}).Count(&count).Error
	return count, err
}
