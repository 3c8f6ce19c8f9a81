package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/beemapp/beem-server/internal/app"
	"github.com/beemapp/beem-server/internal/apperr"
	"github.com/beemapp/beem-server/internal/db"
	"github.com/beemapp/beem-server/internal/repository"
	"github.com/beemapp/beem-server/internal/service/moderation"
)

// Interest tags users can pick from. Stored values are the keys; display
// names live client-side.
var InterestCatalog = []string{
	"games", "flirt", "adult", "anime", "talk",
	"music", "movies", "travel", "photo", "sport",
}

var interestSet = func() map[string]bool {
	m := make(map[string]bool, len(InterestCatalog))
	for _, tag := range InterestCatalog {
		m[tag] = true
	}
	return m
}()

// DefaultDescription is used when a profile carries media but no text.
const DefaultDescription = "Check out my profile"

var (
	validGenders       = map[string]bool{"male": true, "female": true, "other": true}
	validSearchGenders = map[string]bool{"male": true, "female": true, "any": true}
	validMediaKinds    = map[string]bool{"photo": true, "video": true, "voice": true}
)

// Service owns user registration, settings and profile authoring with its
// publish cooldown.
type Service struct {
	appCtx   *app.AppContext
	users    *repository.UserRepository
	profiles *repository.ProfileRepository
	ledger   *moderation.Service

	cooldown time.Duration

	// Now is swappable so tests can step past the publish cooldown.
	Now func() time.Time
}

func NewService(appCtx *app.AppContext, ledger *moderation.Service) *Service {
	return &Service{
		appCtx:   appCtx,
		users:    repository.NewUserRepository(appCtx.DB),
		profiles: repository.NewProfileRepository(appCtx.DB),
		ledger:   ledger,
		cooldown: appCtx.Cfg.Profiles.Cooldown,
		Now:      time.Now,
	}
}

// RegisterInput is the full settings payload collected at onboarding.
type RegisterInput struct {
	UserID       int64    `json:"user_id"`
	Username     string   `json:"username"`
	Name         string   `json:"name"`
	Age          int      `json:"age"`
	Gender       string   `json:"gender"`
	Interests    []string `json:"interests"`
	SearchGender string   `json:"search_gender"`
}

// Register creates or overwrites a user record and marks it registered.
// The id comes from the caller, it is the external account id.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*db.User, error) {
	if err := validateName(in.Name); err != nil {
		return nil, err
	}
	if err := validateAge(in.Age); err != nil {
		return nil, err
	}
	if !validGenders[in.Gender] {
		return nil, apperr.Invalid("unknown gender")
	}
	interests, err := normalizeInterests(in.Interests)
	if err != nil {
		return nil, err
	}
	if in.SearchGender == "" {
		in.SearchGender = "any"
	}
	if !validSearchGenders[in.SearchGender] {
		return nil, apperr.Invalid("unknown search gender")
	}

	u := &db.User{
		ID:           in.UserID,
		Username:     in.Username,
		Name:         strings.TrimSpace(in.Name),
		Age:          in.Age,
		Gender:       in.Gender,
		Interests:    strings.Join(interests, ","),
		SearchGender: in.SearchGender,
		Registered:   true,
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateInput carries partial settings changes; nil fields stay untouched.
type UpdateInput struct {
	Name         *string  `json:"name"`
	Age          *int     `json:"age"`
	Gender       *string  `json:"gender"`
	Interests    []string `json:"interests"`
	SearchGender *string  `json:"search_gender"`
}

// UpdateSettings applies a partial update to a registered user.
func (s *Service) UpdateSettings(ctx context.Context, userID int64, in UpdateInput) (*db.User, error) {
	if _, err := s.getRegistered(ctx, userID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Name != nil {
		if err := validateName(*in.Name); err != nil {
			return nil, err
		}
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Age != nil {
		if err := validateAge(*in.Age); err != nil {
			return nil, err
		}
		fields["age"] = *in.Age
	}
	if in.Gender != nil {
		if !validGenders[*in.Gender] {
			return nil, apperr.Invalid("unknown gender")
		}
		fields["gender"] = *in.Gender
	}
	if in.Interests != nil {
		interests, err := normalizeInterests(in.Interests)
		if err != nil {
			return nil, err
		}
		fields["interests"] = strings.Join(interests, ",")
	}
	if in.SearchGender != nil {
		if !validSearchGenders[*in.SearchGender] {
			return nil, apperr.Invalid("unknown search gender")
		}
		fields["search_gender"] = *in.SearchGender
	}
	if len(fields) > 0 {
		if err := s.users.UpdateFields(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return s.users.Get(ctx, userID)
}

// User fetches a user record.
func (s *Service) User(ctx context.Context, userID int64) (*db.User, error) {
	u, err := s.users.Get(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	return u, err
}

// CreateProfile publishes a new profile for the user, retiring any previous
// one. Publishing is rate limited: a second publish inside the cooldown
// window is rejected with the remaining wait.
func (s *Service) CreateProfile(
	ctx context.Context,
	userID int64,
	description string,
	media []repository.MediaInput,
) (*db.Profile, error) {
	if _, err := s.getRegistered(ctx, userID); err != nil {
		return nil, err
	}
	banned, err := s.ledger.IsBanned(ctx, userID)
	if err != nil {
		return nil, err
	}
	if banned {
		return nil, apperr.Banned("you are banned")
	}

	description = strings.TrimSpace(description)
	if description == "" && len(media) == 0 {
		return nil, apperr.Invalid("profile needs a description or media")
	}
	if description == "" {
		description = DefaultDescription
	}
	for _, m := range media {
		if !validMediaKinds[m.Kind] {
			return nil, apperr.Newf(apperr.KindInvalid, "unsupported media kind %q", m.Kind)
		}
		if m.FileRef == "" {
			return nil, apperr.Invalid("media is missing its file reference")
		}
	}

	last, err := s.profiles.LastCreatedAt(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !last.IsZero() {
		if wait := s.cooldown - s.Now().Sub(last); wait > 0 {
			return nil, apperr.RateLimited(fmt.Sprintf(
				"you can publish a new profile in %s", wait.Round(time.Second)))
		}
	}

	return s.profiles.Create(ctx, userID, description, media)
}

// ActiveProfile returns the user's active profile with its media.
func (s *Service) ActiveProfile(ctx context.Context, userID int64) (*db.Profile, []db.ProfileMedia, error) {
	p, err := s.profiles.ActiveByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperr.NotFound("no active profile")
	}
	if err != nil {
		return nil, nil, err
	}
	media, err := s.profiles.Media(ctx, p.ID)
	if err != nil {
		return nil, nil, err
	}
	return p, media, nil
}

// DeleteActiveProfile retires the user's active profile. Deleting when none
// exists is a no-op.
func (s *Service) DeleteActiveProfile(ctx context.Context, userID int64) error {
	return s.profiles.DeactivateByUser(ctx, userID)
}

func (s *Service) getRegistered(ctx context.Context, userID int64) (*db.User, error) {
	u, err := s.users.Get(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.AccessDenied("registration required")
	}
	if err != nil {
		return nil, err
	}
	if !u.Registered {
		return nil, apperr.AccessDenied("registration required")
	}
	return u, nil
}

func validateName(name string) error {
	n := len([]rune(strings.TrimSpace(name)))
	if n < 2 || n > 30 {
		return apperr.Invalid("name must be 2 to 30 characters")
	}
	return nil
}

func validateAge(age int) error {
	if age < 10 || age > 99 {
		return apperr.Invalid("age must be between 10 and 99")
	}
	return nil
}

func normalizeInterests(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, apperr.Invalid("pick at least one interest")
	}
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.ToLower(tag))
		if !interestSet[tag] {
			return nil, apperr.Newf(apperr.KindInvalid, "unknown interest %q", tag)
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out, nil
}
