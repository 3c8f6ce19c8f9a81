package engagement

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/beemapp/beem-server/internal/app"
	"github.com/beemapp/beem-server/internal/apperr"
	"github.com/beemapp/beem-server/internal/cache"
	"github.com/beemapp/beem-server/internal/repository"
)

// Service tracks who liked which profile and serves the per-profile like
// counter, cache-first with the profile row as the durable fallback.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	likes    *repository.LikeRepository
	cache    *cache.RedisCache
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		profiles: repository.NewProfileRepository(appCtx.DB),
		likes:    repository.NewLikeRepository(appCtx.DB),
		cache:    appCtx.RedisCache,
	}
}

// ToggleLike flips the liker's like on a profile and returns the new state
// together with the fresh counter. The counter never goes below zero.
func (s *Service) ToggleLike(ctx context.Context, profileID, likerID int64) (liked bool, count int64, err error) {
	if _, err := s.profiles.ByID(ctx, profileID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, 0, apperr.NotFound("profile not found")
		}
		return false, 0, err
	}

	liked, err = s.likes.Toggle(ctx, profileID, likerID)
	if err != nil {
		return false, 0, err
	}

	p, err := s.profiles.ByID(ctx, profileID)
	if err != nil {
		return false, 0, err
	}
	count = p.Likes

	// cache refresh is best-effort, the counter lives in the profile row
	if err := s.cache.SetLikeCount(ctx, profileID, count); err != nil {
		s.appCtx.Logger.Warn("like count cache write failed", "profile_id", profileID, "err", err)
	}
	return liked, count, nil
}

// LikeCount reads the counter cache-first, falling back to the profile row
// on a miss and repopulating the cache.
func (s *Service) LikeCount(ctx context.Context, profileID int64) (int64, error) {
	count, hit, err := s.cache.GetLikeCount(ctx, profileID)
	if err != nil {
		s.appCtx.Logger.Warn("like count cache read failed", "profile_id", profileID, "err", err)
	}
	if hit {
		return count, nil
	}

	p, err := s.profiles.ByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.NotFound("profile not found")
		}
		return 0, err
	}
	if err := s.cache.SetLikeCount(ctx, profileID, p.Likes); err != nil {
		s.appCtx.Logger.Warn("like count cache write failed", "profile_id", profileID, "err", err)
	}
	return p.Likes, nil
}

// HasLiked reports whether the liker currently likes the profile.
func (s *Service) HasLiked(ctx context.Context, profileID, likerID int64) (bool, error) {
	return s.likes.Exists(ctx, profileID, likerID)
}

// ReconcileCount rebuilds the denormalized counter from the like rows and
// refreshes cache. Returns the recomputed value.
func (s *Service) ReconcileCount(ctx context.Context, profileID int64) (int64, error) {
	count, err := s.likes.CountForProfile(ctx, profileID)
	if err != nil {
		return 0, err
	}
	if err := s.profiles.SetLikeCounter(ctx, profileID, count); err != nil {
		return 0, err
	}
	if err := s.cache.SetLikeCount(ctx, profileID, count); err != nil {
		s.appCtx.Logger.Warn("like count cache write failed", "profile_id", profileID, "err", err)
	}
	return count, nil
}
