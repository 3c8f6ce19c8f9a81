package db

import (
	"strings"
	"time"
)

// User table. IDs come from the client identity space (the messenger account
// id), so the primary key is externally assigned and never auto-incremented.
type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement:false"`
	Username     string `gorm:"size:64;index"`
	Name         string `gorm:"size:64"`
	Age          int
	Gender       string `gorm:"size:16"`
	Interests    string `gorm:"size:255"` // comma-joined tag keys
	SearchGender string `gorm:"size:16;default:any"`
	Registered   bool   `gorm:"default:false;index"`
	Banned       bool   `gorm:"default:false;index"`
	BanUntil     *time.Time
	BanReason    string    `gorm:"size:255"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// InterestSet splits the stored comma-joined interests into tag keys.
func (u *User) InterestSet() []string {
	return SplitInterests(u.Interests)
}

// SplitInterests parses a comma-joined interest string, dropping empties.
func SplitInterests(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Profile is a user's discoverable self-presentation. At most one row per
// owner has Active=true; creating a new profile deactivates the prior one in
// the same transaction.
type Profile struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	UserID      int64  `gorm:"not null;index:idx_profiles_user_active,priority:1"`
	Description string `gorm:"size:500"`
	Active      bool   `gorm:"not null;default:true;index:idx_profiles_user_active,priority:2"`
	Likes       int64  `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// ProfileMedia is an ordered attachment on a profile. FileRef is an opaque
// reference owned by the client transport; immutable after publish.
type ProfileMedia struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	ProfileID int64  `gorm:"not null;index"`
	FileRef   string `gorm:"size:255;not null"`
	Kind      string `gorm:"size:16;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ProfileMedia) TableName() string { return "profile_media" }

// Like rows are keyed by (profile, liker). The composite PK is the
// serialization point for concurrent toggles.
type Like struct {
	ProfileID int64     `gorm:"primaryKey;autoIncrement:false"`
	LikerID   int64     `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Chat is a durable anonymous two-party relay session, keyed by the profile
// that originated it. The unique (profile, sender) index makes reopening
// return the same row.
type Chat struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	ProfileID int64     `gorm:"not null;uniqueIndex:uidx_chats_profile_sender,priority:1"`
	SenderID  int64     `gorm:"not null;index;uniqueIndex:uidx_chats_profile_sender,priority:2"`
	TargetID  int64     `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Message is append-only chat content. History reads order by
// (created_at, id) so same-timestamp writes keep insertion order.
type Message struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	ChatID    int64  `gorm:"not null;index:idx_messages_chat_created,priority:1"`
	SenderID  int64  `gorm:"not null"`
	Content   string `gorm:"type:text"`
	Kind      string `gorm:"size:16;not null;default:text"`
	FileRef   string `gorm:"size:255"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_messages_chat_created,priority:2"`
}

// Report statuses.
const (
	ReportStatusNew      = "new"
	ReportStatusResolved = "resolved"
)

type Report struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	ChatID     int64  `gorm:"not null;index"`
	ReporterID int64  `gorm:"not null"`
	ReportedID int64  `gorm:"not null;index"`
	Reason     string `gorm:"size:255"`
	Status     string `gorm:"size:16;not null;default:new;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Block is a unilateral relation; relay checks it in both directions.
// Duplicate inserts are a no-op via the composite PK.
type Block struct {
	BlockerID int64     `gorm:"primaryKey;autoIncrement:false"`
	BlockedID int64     `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
