package matching

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/beemapp/beem-server/internal/app"
	"github.com/beemapp/beem-server/internal/apperr"
	"github.com/beemapp/beem-server/internal/db"
	"github.com/beemapp/beem-server/internal/repository"
	"github.com/beemapp/beem-server/internal/service/moderation"
)

// Candidate pairs a discoverable profile with its owner and media, ready
// for rendering.
type Candidate struct {
	Profile db.Profile        `json:"profile"`
	Owner   db.User           `json:"owner"`
	Media   []db.ProfileMedia `json:"media"`
}

// Service draws candidate profiles for a viewer: a random eligible superset
// from storage, then interest matching and owner dedup in memory.
type Service struct {
	appCtx   *app.AppContext
	users    *repository.UserRepository
	profiles *repository.ProfileRepository
	ledger   *moderation.Service

	sampleBound  int
	defaultLimit int
}

func NewService(appCtx *app.AppContext, ledger *moderation.Service) *Service {
	return &Service{
		appCtx:       appCtx,
		users:        repository.NewUserRepository(appCtx.DB),
		profiles:     repository.NewProfileRepository(appCtx.DB),
		ledger:       ledger,
		sampleBound:  appCtx.Cfg.Matching.SampleBound,
		defaultLimit: appCtx.Cfg.Matching.DefaultLimit,
	}
}

// FindCandidates returns up to limit profiles whose owners share at least
// one interest with the viewer. Profiles of banned owners, blocked users
// (either direction) and the viewer's own profile never appear; at most
// one profile per owner makes the cut. The result is a random draw, so
// repeated calls vary.
func (s *Service) FindCandidates(ctx context.Context, viewerID int64, limit int) ([]Candidate, error) {
	viewer, err := s.users.Get(ctx, viewerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.AccessDenied("registration required")
	}
	if err != nil {
		return nil, err
	}
	if !viewer.Registered {
		return nil, apperr.AccessDenied("registration required")
	}
	banned, err := s.ledger.IsBanned(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if banned {
		return nil, apperr.Banned("you are banned")
	}

	if limit <= 0 {
		limit = s.defaultLimit
	}
	wanted := viewer.InterestSet()
	if len(wanted) == 0 {
		return []Candidate{}, nil
	}

	sample, err := s.profiles.SampleEligible(ctx, viewerID, s.sampleBound)
	if err != nil {
		return nil, err
	}
	if len(sample) == 0 {
		return []Candidate{}, nil
	}

	ownerIDs := make([]int64, 0, len(sample))
	seen := make(map[int64]struct{}, len(sample))
	for _, p := range sample {
		if _, ok := seen[p.UserID]; ok {
			continue
		}
		seen[p.UserID] = struct{}{}
		ownerIDs = append(ownerIDs, p.UserID)
	}
	owners, err := s.users.ByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, limit)
	picked := make(map[int64]struct{}, limit)
	for _, p := range sample {
		if len(out) == limit {
			break
		}
		if _, ok := picked[p.UserID]; ok {
			continue
		}
		owner, ok := owners[p.UserID]
		if !ok || !sharesInterest(wanted, owner.InterestSet()) {
			continue
		}
		media, err := s.profiles.Media(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		picked[p.UserID] = struct{}{}
		out = append(out, Candidate{Profile: p, Owner: owner, Media: media})
	}
	return out, nil
}

func sharesInterest(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, tag := range a {
		set[tag] = struct{}{}
	}
	for _, tag := range b {
		if _, ok := set[tag]; ok {
			return true
		}
	}
	return false
}
