package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beemapp/beem-server/internal/db"
)

// ChatRepository provides data access for relay sessions.
type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(database *gorm.DB) *ChatRepository {
	return &ChatRepository{db: database}
}

// GetOrCreate returns the chat keyed by (profileID, senderID), creating it
// if absent. Concurrent calls converge on the same row: the insert is
// conflict-tolerant and the follow-up read resolves the winner.
func (r *ChatRepository) GetOrCreate(ctx context.Context, profileID, senderID, targetID int64) (*db.Chat, error) {
	chat := db.Chat{ProfileID: profileID, SenderID: senderID, TargetID: targetID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&chat).Error; err != nil {
		return nil, err
	}

	var out db.Chat
	err := r.db.WithContext(ctx).
		First(&out, "profile_id = ? AND sender_id = ?", profileID, senderID).Error
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ByID fetches a chat by id.
func (r *ChatRepository) ByID(ctx context.Context, id int64) (*db.Chat, error) {
	var c db.Chat
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ByUser lists chats the user participates in, newest first.
func (r *ChatRepository) ByUser(ctx context.Context, userID int64) ([]db.Chat, error) {
	var chats []db.Chat
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR target_id = ?", userID, userID).
		Order("id DESC").
		Find(&chats).Error
	return chats, err
}

// ListAll returns every chat newest first, for the moderator surface.
func (r *ChatRepository) ListAll(ctx context.Context) ([]db.Chat, error) {
	var chats []db.Chat
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&chats).Error
	return chats, err
}

// Count returns the chat total for the stats view.
func (r *ChatRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Chat{}).Count(&count).Error
	return count, err
}
