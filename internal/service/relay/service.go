package relay

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/beemapp/beem-server/internal/app"
	"github.com/beemapp/beem-server/internal/apperr"
	"github.com/beemapp/beem-server/internal/db"
	"github.com/beemapp/beem-server/internal/repository"
	"github.com/beemapp/beem-server/internal/service/moderation"
	"github.com/beemapp/beem-server/internal/transport"
)

// Service runs the anonymous relay: per-user session pointers in memory,
// messages persisted then forwarded to the partner over the transport.
// Sessions are process-local; a restart drops them and users simply reopen,
// the chats themselves are durable.
type Service struct {
	appCtx   *app.AppContext
	profiles *repository.ProfileRepository
	chats    *repository.ChatRepository
	messages *repository.MessageRepository
	reports  *repository.ReportRepository
	blocks   *repository.BlockRepository
	ledger   *moderation.Service

	sessions     *sessionTable
	historyLimit int
}

func NewService(appCtx *app.AppContext, ledger *moderation.Service) *Service {
	return &Service{
		appCtx:       appCtx,
		profiles:     repository.NewProfileRepository(appCtx.DB),
		chats:        repository.NewChatRepository(appCtx.DB),
		messages:     repository.NewMessageRepository(appCtx.DB),
		reports:      repository.NewReportRepository(appCtx.DB),
		blocks:       repository.NewBlockRepository(appCtx.DB),
		ledger:       ledger,
		sessions:     newSessionTable(),
		historyLimit: appCtx.Cfg.Relay.HistoryLimit,
	}
}

// Session exposes the viewer's current pointer, for handlers and tests.
func (s *Service) Session(userID int64) (chatID, partnerID int64, active bool) {
	slot := s.sessions.slot(userID)
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.chatID, slot.partnerID, slot.active
}

// OpenByProfile starts (or resumes) the sender's chat about a profile. The
// chat is keyed by (profile, sender) so reopening the same profile always
// lands in the same chat. The profile owner gets a best-effort notice with
// a reply action.
func (s *Service) OpenByProfile(ctx context.Context, viewerID, profileID, ownerID int64) (*db.Chat, error) {
	if ownerID == viewerID {
		return nil, apperr.AccessDenied("cannot open a chat with your own profile")
	}

	slot := s.sessions.slot(viewerID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	banned, err := s.ledger.IsBanned(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if banned {
		return nil, apperr.Banned("you are banned")
	}

	// the profile may have been retired or replaced since the viewer saw it
	active, err := s.profiles.ActiveByUser(ctx, ownerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("profile no longer available")
	}
	if err != nil {
		return nil, err
	}
	if active.ID != profileID {
		return nil, apperr.NotFound("profile no longer available")
	}

	blocked, err := s.blocks.ExistsEither(ctx, viewerID, ownerID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, apperr.BlockedByPeer("you cannot chat with this user")
	}

	chat, err := s.chats.GetOrCreate(ctx, profileID, viewerID, ownerID)
	if err != nil {
		return nil, err
	}
	slot.set(chat.ID, ownerID)

	if err := s.appCtx.Transport.Notify(ctx, ownerID,
		"Someone wrote to you about your profile.",
		transport.ChatActions(chat.ID)); err != nil {
		s.appCtx.Logger.Warn("chat notice undelivered", "chat_id", chat.ID, "user_id", ownerID, "err", err)
	}
	return chat, nil
}

// OpenByID resumes an existing chat the user is party to and returns the
// recent history, oldest first.
func (s *Service) OpenByID(ctx context.Context, userID, chatID int64) (*db.Chat, []db.Message, error) {
	slot := s.sessions.slot(userID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	chat, partnerID, err := s.chatParty(ctx, chatID, userID)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.messages.History(ctx, chatID, s.historyLimit)
	if err != nil {
		return nil, nil, err
	}
	slot.set(chat.ID, partnerID)
	return chat, history, nil
}

// Relay persists the sender's message in their current chat and forwards
// it to the partner. Without an active session it is a silent no-op. A ban
// or a block in either direction ends the session instead of relaying;
// delivery failure keeps the message but drops the session so the sender
// stops posting into the void.
func (s *Service) Relay(ctx context.Context, userID int64, content transport.Content) (*db.Message, error) {
	if err := content.Validate(); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInvalid, "unsupported message")
	}

	slot := s.sessions.slot(userID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if !slot.active {
		return nil, nil
	}
	chatID, partnerID := slot.chatID, slot.partnerID

	banned, err := s.ledger.IsBanned(ctx, userID)
	if err != nil {
		return nil, err
	}
	if banned {
		slot.clear()
		return nil, apperr.Banned("you are banned")
	}
	partnerBanned, err := s.ledger.IsBanned(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if partnerBanned {
		slot.clear()
		return nil, apperr.Banned("this user is no longer available")
	}

	blocked, err := s.blocks.ExistsEither(ctx, userID, partnerID)
	if err != nil {
		return nil, err
	}
	if blocked {
		slot.clear()
		return nil, apperr.BlockedByPeer("you cannot chat with this user")
	}

	msg := &db.Message{
		ChatID:   chatID,
		SenderID: userID,
		Kind:     string(content.Kind),
		Content:  content.Text,
		FileRef:  content.FileRef,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, err
	}

	if err := s.appCtx.Transport.Deliver(ctx, partnerID, content,
		transport.ChatActions(chatID)); err != nil {
		slot.clear()
		return msg, apperr.Wrap(err, apperr.KindDeliveryFailed, "could not reach your chat partner")
	}
	return msg, nil
}

// Exit drops the user's session pointer. Always succeeds.
func (s *Service) Exit(ctx context.Context, userID int64) error {
	slot := s.sessions.slot(userID)
	slot.mu.Lock()
	defer slot.mu.Unlock()
	slot.clear()
	return nil
}

// Report files a report against the other party of a chat. The chat stays
// open; moderation happens out of band.
func (s *Service) Report(ctx context.Context, reporterID, chatID int64, reason string) (*db.Report, error) {
	_, reportedID, err := s.chatParty(ctx, chatID, reporterID)
	if err != nil {
		return nil, err
	}
	report := &db.Report{
		ChatID:     chatID,
		ReporterID: reporterID,
		ReportedID: reportedID,
		Reason:     reason,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// Block records a block against the other party of a chat and ends the
// blocker's session. Blocking twice is a no-op.
func (s *Service) Block(ctx context.Context, blockerID, chatID int64) error {
	slot := s.sessions.slot(blockerID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	_, blockedID, err := s.chatParty(ctx, chatID, blockerID)
	if err != nil {
		return err
	}
	if err := s.blocks.Insert(ctx, blockerID, blockedID); err != nil {
		return err
	}
	slot.clear()
	return nil
}

// MyChats lists all chats the user is party to, newest first.
func (s *Service) MyChats(ctx context.Context, userID int64) ([]db.Chat, error) {
	return s.chats.ByUser(ctx, userID)
}

// chatParty loads a chat and resolves the other party, rejecting users who
// are not in it.
func (s *Service) chatParty(ctx context.Context, chatID, userID int64) (*db.Chat, int64, error) {
	chat, err := s.chats.ByID(ctx, chatID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, apperr.NotFound("chat not found")
	}
	if err != nil {
		return nil, 0, err
	}
	switch userID {
	case chat.SenderID:
		return chat, chat.TargetID, nil
	case chat.TargetID:
		return chat, chat.SenderID, nil
	default:
		return nil, 0, apperr.AccessDenied("not a participant of this chat")
	}
}
