package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/beemapp/beem-server/internal/db"
)

// ProfileRepository provides data access for profiles and their media.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// MediaInput is one attachment supplied at publish time.
type MediaInput struct {
	FileRef string
	Kind    string
}

// Create publishes a new profile, deactivating any prior active profile of
// the same owner in the same transaction so the one-active-per-owner
// invariant holds even under concurrent publishes.
func (r *ProfileRepository) Create(
	ctx context.Context,
	userID int64,
	description string,
	media []MediaInput,
) (*db.Profile, error) {
	profile := &db.Profile{
		UserID:      userID,
		Description: description,
		Active:      true,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&db.Profile{}).
			Where("user_id = ? AND active = ?", userID, true).
			Update("active", false).Error; err != nil {
			return err
		}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		for _, m := range media {
			if err := tx.Create(&db.ProfileMedia{
				ProfileID: profile.ID,
				FileRef:   m.FileRef,
				Kind:      m.Kind,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// ByID fetches a profile by id.
func (r *ProfileRepository) ByID(ctx context.Context, id int64) (*db.Profile, error) {
	var p db.Profile
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ActiveByUser fetches the owner's single active profile, if any.
func (r *ProfileRepository) ActiveByUser(ctx context.Context, userID int64) (*db.Profile, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).
		First(&p, "user_id = ? AND active = ?", userID, true).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeactivateByUser retires the owner's active profile. Idempotent.
func (r *ProfileRepository) DeactivateByUser(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("user_id = ? AND active = ?", userID, true).
		Update("active", false).Error
}

// LastCreatedAt returns the creation time of the owner's newest profile
// (zero time when none exist). Drives the publish cooldown.
func (r *ProfileRepository) LastCreatedAt(ctx context.Context, userID int64) (time.Time, error) {
	var p db.Profile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&p).Error
	if err == gorm.ErrRecordNotFound {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return p.CreatedAt, nil
}

// SampleEligible draws up to bound active profiles in randomized order,
// excluding the viewer's own, banned owners, and anyone blocked in either
// direction. The interest filter is applied by the caller.
func (r *ProfileRepository) SampleEligible(ctx context.Context, viewerID int64, bound int) ([]db.Profile, error) {
	var profiles []db.Profile
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("user_id <> ?", viewerID).
		Where("user_id NOT IN (SELECT id FROM users WHERE banned = ?)", true).
		Where("user_id NOT IN (SELECT blocked_id FROM blocks WHERE blocker_id = ?)", viewerID).
		Where("user_id NOT IN (SELECT blocker_id FROM blocks WHERE blocked_id = ?)", viewerID).
		Order(r.randomExpr()).
		Limit(bound).
		Find(&profiles).Error
	return profiles, err
}

// randomExpr picks the dialect's random-order function.
func (r *ProfileRepository) randomExpr() string {
	if r.db.Dialector.Name() == "mysql" {
		return "RAND()"
	}
	return "RANDOM()"
}

// ListActive returns all active profiles newest first, for the moderator
// surface.
func (r *ProfileRepository) ListActive(ctx context.Context) ([]db.Profile, error) {
	var profiles []db.Profile
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&profiles).Error
	return profiles, err
}

// CountActive returns the active-profile total for the stats view.
func (r *ProfileRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("active = ?", true).
		Count(&count).Error
	return count, err
}

// SetLikeCounter overwrites the denormalized like counter. Used when
// reconciling against the like rows.
func (r *ProfileRepository) SetLikeCounter(ctx context.Context, profileID, count int64) error {
	return r.db.WithContext(ctx).
		Model(&db.Profile{}).
		Where("id = ?", profileID).
		Update("likes", count).Error
}

// Media lists a profile's attachments in insertion order.
func (r *ProfileRepository) Media(ctx context.Context, profileID int64) ([]db.ProfileMedia, error) {
	var media []db.ProfileMedia
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("id ASC").
		Find(&media).Error
	return media, err
}
