package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/beemapp/beem-server/internal/db"
	"github.com/beemapp/beem-server/internal/utils/pagination"
)

// UserRepository provides data access for the User model, including the
// stored ban fields the moderation ledger reads and writes.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Get fetches a user by id. Returns gorm.ErrRecordNotFound when absent.
func (r *UserRepository) Get(ctx context.Context, id int64) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ByIDs fetches the users with the given ids, keyed for lookup.
func (r *UserRepository) ByIDs(ctx context.Context, ids []int64) (map[int64]db.User, error) {
	if len(ids) == 0 {
		return map[int64]db.User{}, nil
	}
	var users []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]db.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

// Save upserts a user keyed by its externally assigned id.
func (r *UserRepository) Save(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "name", "age", "gender", "interests",
				"search_gender", "registered",
			}),
		}).
		Create(u).Error
}

// UpdateFields applies a partial update to a user row.
func (r *UserRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// SetBan stamps the ban fields. A nil until means the ban never expires.
func (r *UserRepository) SetBan(ctx context.Context, id int64, until *time.Time, reason string) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"banned":     true,
			"ban_until":  until,
			"ban_reason": reason,
		}).Error
}

// ClearBan unconditionally clears flag, expiry and reason.
func (r *UserRepository) ClearBan(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"banned":     false,
			"ban_until":  nil,
			"ban_reason": "",
		}).Error
}

// ListRegistered returns registered users newest first with cursor-based
// pagination.
func (r *UserRepository) ListRegistered(
	ctx context.Context,
	paginationToken *string,
	limit int,
) ([]db.User, *string, error) {
	var users []db.User

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("registered = ?", true).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if cursor.LastID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.LastID,
		)
	}

	if err := query.Find(&users).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(users) > limit {
		last := users[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			LastID:      last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		users = users[:limit]
	}

	return users, nextToken, nil
}

// AllRegistered returns every registered user. Used by broadcast.
func (r *UserRepository) AllRegistered(ctx context.Context) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("registered = ?", true).
		Order("created_at DESC").
		Find(&users).Error
	return users, err
}

// CountRegistered returns the registered-user total for the stats view.
func (r *UserRepository) CountRegistered(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("registered = ?", true).
		Count(&count).Error
	return count, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
