package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beemapp/beem-server/internal/db"
)

// LikeRepository owns the like relation and its denormalized counter on
// profiles. The composite (profile_id, liker_id) primary key is the
// serialization point for concurrent toggles.
type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// Toggle flips the like state for (profileID, likerID) and keeps the
// profile counter in lock-step inside one transaction. Returns the
// resulting state so callers can reflect it without a second read.
func (r *LikeRepository) Toggle(ctx context.Context, profileID, likerID int64) (bool, error) {
	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("profile_id = ? AND liker_id = ?", profileID, likerID).
			Delete(&db.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			// floor the counter at zero
			return tx.Model(&db.Profile{}).
				Where("id = ? AND likes > 0", profileID).
				Update("likes", gorm.Expr("likes - 1")).Error
		}

		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&db.Like{ProfileID: profileID, LikerID: likerID})
		if ins.Error != nil {
			return ins.Error
		}
		liked = true
		if ins.RowsAffected == 0 {
			// lost the race to a concurrent toggle that already inserted;
			// that toggle owns the counter increment
			return nil
		}
		return tx.Model(&db.Profile{}).
			Where("id = ?", profileID).
			Update("likes", gorm.Expr("likes + 1")).Error
	})
	return liked, err
}

// CountForProfile counts like rows directly; the authoritative fallback when
// the cached counter is suspect.
func (r *LikeRepository) CountForProfile(ctx context.Context, profileID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("profile_id = ?", profileID).
		Count(&count).Error
	return count, err
}

// Exists reports whether likerID currently likes profileID.
func (r *LikeRepository) Exists(ctx context.Context, profileID, likerID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("profile_id = ? AND liker_id = ?", profileID, likerID).
		Count(&count).Error
	return count > 0, err
}
