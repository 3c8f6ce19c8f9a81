package transport

import (
	"context"
	"log/slog"
)

// LogTransport writes every delivery to the structured log and always
// succeeds. Default wiring for development; a real deployment swaps in a
// client-facing implementation.
type LogTransport struct {
	Logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{Logger: logger}
}

func (t *LogTransport) Deliver(ctx context.Context, userID int64, content Content, actions []Action) error {
	t.Logger.Info("deliver",
		"user_id", userID,
		"kind", content.Kind,
		"has_file", content.FileRef != "",
		"actions", len(actions),
	)
	return nil
}

func (t *LogTransport) Notify(ctx context.Context, userID int64, text string, actions []Action) error {
	t.Logger.Info("notify",
		"user_id", userID,
		"text", text,
		"actions", len(actions),
	)
	return nil
}
