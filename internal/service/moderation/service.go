package moderation

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/beemapp/beem-server/internal/app"
	"github.com/beemapp/beem-server/internal/apperr"
	"github.com/beemapp/beem-server/internal/db"
	"github.com/beemapp/beem-server/internal/repository"
)

// Ban duration keys form a fixed enumerated set; "forever" encodes a nil
// expiry.
const (
	DurationHour    = "1h"
	DurationDay     = "24h"
	DurationWeek    = "7d"
	DurationForever = "forever"
)

var banDurations = map[string]time.Duration{
	DurationHour:    time.Hour,
	DurationDay:     24 * time.Hour,
	DurationWeek:    7 * 24 * time.Hour,
	DurationForever: 0,
}

var banLabels = map[string]string{
	DurationHour:    "1 hour",
	DurationDay:     "24 hours",
	DurationWeek:    "7 days",
	DurationForever: "forever",
}

// Service is the moderation ledger: ban state with lazy TTL expiry, the
// block relation, the report queue, and the audit listings the moderator
// surface reads.
type Service struct {
	appCtx   *app.AppContext
	users    *repository.UserRepository
	profiles *repository.ProfileRepository
	chats    *repository.ChatRepository
	messages *repository.MessageRepository
	reports  *repository.ReportRepository
	blocks   *repository.BlockRepository

	// Now is swappable so tests can advance the clock past ban expiries.
	Now func() time.Time
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		users:    repository.NewUserRepository(appCtx.DB),
		profiles: repository.NewProfileRepository(appCtx.DB),
		chats:    repository.NewChatRepository(appCtx.DB),
		messages: repository.NewMessageRepository(appCtx.DB),
		reports:  repository.NewReportRepository(appCtx.DB),
		blocks:   repository.NewBlockRepository(appCtx.DB),
		Now:      time.Now,
	}
}

// IsBanned evaluates ban state lazily: an expired ban is cleared as a side
// effect of the check and reported as not banned. Unknown users are not
// banned.
func (s *Service) IsBanned(ctx context.Context, userID int64) (bool, error) {
	u, err := s.users.Get(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !u.Banned {
		return false, nil
	}
	if u.BanUntil == nil {
		return true, nil // permanent
	}
	if s.Now().Before(*u.BanUntil) {
		return true, nil
	}
	// expired: clear the stored fields on the way out
	if err := s.users.ClearBan(ctx, userID); err != nil {
		return false, err
	}
	return false, nil
}

// Ban restricts a user for the given duration key and deactivates their
// active profile so they stop being discoverable. The notification to the
// banned user is best-effort.
func (s *Service) Ban(ctx context.Context, userID int64, durationKey, reason string) error {
	d, ok := banDurations[durationKey]
	if !ok {
		return apperr.Newf(apperr.KindInvalid, "unknown ban duration %q", durationKey)
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user not found")
		}
		return err
	}

	var until *time.Time
	if d > 0 {
		t := s.Now().Add(d)
		until = &t
	}
	if err := s.users.SetBan(ctx, userID, until, reason); err != nil {
		return err
	}
	if err := s.profiles.DeactivateByUser(ctx, userID); err != nil {
		return err
	}

	if err := s.appCtx.Transport.Notify(ctx, userID,
		"You have been banned for "+banLabels[durationKey]+".", nil); err != nil {
		s.appCtx.Logger.Warn("ban notice undelivered", "user_id", userID, "err", err)
	}
	return nil
}

// Unban clears flag, expiry and reason unconditionally; unbanning a user
// who is not banned is a no-op.
func (s *Service) Unban(ctx context.Context, userID int64) error {
	if err := s.users.ClearBan(ctx, userID); err != nil {
		return err
	}
	if err := s.appCtx.Transport.Notify(ctx, userID, "You have been unbanned.", nil); err != nil {
		s.appCtx.Logger.Warn("unban notice undelivered", "user_id", userID, "err", err)
	}
	return nil
}

// IsBlocked checks the single direction blocker → blocked.
func (s *Service) IsBlocked(ctx context.Context, blockerID, blockedID int64) (bool, error) {
	return s.blocks.Exists(ctx, blockerID, blockedID)
}

// BlockedEither reports whether either party has blocked the other.
func (s *Service) BlockedEither(ctx context.Context, a, b int64) (bool, error) {
	return s.blocks.ExistsEither(ctx, a, b)
}

// ResolveReport moves a report to resolved; resolving twice is a no-op.
func (s *Service) ResolveReport(ctx context.Context, reportID int64) error {
	err := s.reports.Resolve(ctx, reportID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("report not found")
	}
	return err
}

// Reports lists reports, optionally filtered by status.
func (s *Service) Reports(ctx context.Context, status string) ([]db.Report, error) {
	return s.reports.ListByStatus(ctx, status)
}

// Users lists registered users newest first with cursor pagination.
func (s *Service) Users(ctx context.Context, pageToken *string, limit int) ([]db.User, *string, error) {
	return s.users.ListRegistered(ctx, pageToken, limit)
}

// UserDetail bundles a user with their active profile (if any) and chats.
func (s *Service) UserDetail(ctx context.Context, userID int64) (*db.User, *db.Profile, []db.Chat, error) {
	u, err := s.users.Get(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, nil, nil, err
	}
	profile, err := s.profiles.ActiveByUser(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil, err
	}
	chats, err := s.chats.ByUser(ctx, userID)
	if err != nil {
		return nil, nil, nil, err
	}
	return u, profile, chats, nil
}

// ActiveProfiles lists all active profiles for the moderator surface.
func (s *Service) ActiveProfiles(ctx context.Context) ([]db.Profile, error) {
	return s.profiles.ListActive(ctx)
}

// Chats lists all relay sessions for the moderator surface.
func (s *Service) Chats(ctx context.Context) ([]db.Chat, error) {
	return s.chats.ListAll(ctx)
}

// ChatHistory returns one chat plus its last limit messages ascending.
func (s *Service) ChatHistory(ctx context.Context, chatID int64, limit int) (*db.Chat, []db.Message, error) {
	chat, err := s.chats.ByID(ctx, chatID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperr.NotFound("chat not found")
	}
	if err != nil {
		return nil, nil, err
	}
	history, err := s.messages.History(ctx, chatID, limit)
	if err != nil {
		return nil, nil, err
	}
	return chat, history, nil
}

// Stats aggregates the counters shown on the moderator dashboard.
type Stats struct {
	Users      int64 `json:"users"`
	Profiles   int64 `json:"profiles"`
	Chats      int64 `json:"chats"`
	Messages   int64 `json:"messages"`
	NewReports int64 `json:"new_reports"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	out := &Stats{}
	var err error
	if out.Users, err = s.users.CountRegistered(ctx); err != nil {
		return nil, err
	}
	if out.Profiles, err = s.profiles.CountActive(ctx); err != nil {
		return nil, err
	}
	if out.Chats, err = s.chats.Count(ctx); err != nil {
		return nil, err
	}
	if out.Messages, err = s.messages.Count(ctx); err != nil {
		return nil, err
	}
	if out.NewReports, err = s.reports.CountByStatus(ctx, db.ReportStatusNew); err != nil {
		return nil, err
	}
	return out, nil
}

// Broadcast sends text to every registered user, best-effort per recipient.
// Only aggregate counts come back; individual failures are logged and
// dropped.
func (s *Service) Broadcast(ctx context.Context, text string) (sent, failed int, err error) {
	users, err := s.users.AllRegistered(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, u := range users {
		if err := s.appCtx.Transport.Notify(ctx, u.ID, text, nil); err != nil {
			s.appCtx.Logger.Debug("broadcast miss", "user_id", u.ID, "err", err)
			failed++
			continue
		}
		sent++
	}
	return sent, failed, nil
}
