// Package transport abstracts message delivery to clients. The core never
// assumes a human saw anything, only that the transport accepted it; the
// concrete client channel (messenger push, socket, webhook) lives outside
// this repository.
package transport

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnreachable reports that the transport could not reach the recipient.
var ErrUnreachable = errors.New("recipient unreachable")

// Kind tags relayed content. The set is closed: relay and persistence
// operate generically over it instead of per-kind branching.
type Kind string

const (
	KindText      Kind = "text"
	KindPhoto     Kind = "photo"
	KindVideo     Kind = "video"
	KindVoice     Kind = "voice"
	KindVideoNote Kind = "video_note"
	KindSticker   Kind = "sticker"
	KindAnimation Kind = "animation"
	KindDocument  Kind = "document"
	KindAudio     Kind = "audio"
)

var knownKinds = map[Kind]bool{
	KindText: true, KindPhoto: true, KindVideo: true, KindVoice: true,
	KindVideoNote: true, KindSticker: true, KindAnimation: true,
	KindDocument: true, KindAudio: true,
}

// Content is the tagged variant relayed between chat parties. Text carries
// the body for text kinds and the caption otherwise; FileRef is an opaque
// media reference owned by the transport.
type Content struct {
	Kind    Kind   `json:"kind"`
	Text    string `json:"text,omitempty"`
	FileRef string `json:"file_ref,omitempty"`
}

// Validate rejects unknown kinds and contentless payloads.
func (c Content) Validate() error {
	if !knownKinds[c.Kind] {
		return fmt.Errorf("unsupported content kind %q", c.Kind)
	}
	if c.Kind == KindText {
		if c.Text == "" {
			return fmt.Errorf("text content requires a body")
		}
		return nil
	}
	if c.FileRef == "" {
		return fmt.Errorf("%s content requires a file reference", c.Kind)
	}
	return nil
}

// Action kinds attached to notifications so the client can render the relay
// control panel (reply/block/report).
const (
	ActionReply  = "reply"
	ActionBlock  = "block"
	ActionReport = "report"
)

// Action is an affordance offered alongside a delivery or notice.
type Action struct {
	Kind   string `json:"kind"`
	ChatID int64  `json:"chat_id"`
}

// ChatActions builds the standard control panel for a chat.
func ChatActions(chatID int64) []Action {
	return []Action{
		{Kind: ActionReply, ChatID: chatID},
		{Kind: ActionBlock, ChatID: chatID},
		{Kind: ActionReport, ChatID: chatID},
	}
}

// Transport delivers relayed content and out-of-band notices. Both methods
// are best-effort: a returned error means the transport could not accept the
// payload, and retry policy belongs to the implementation, never the core.
type Transport interface {
	Deliver(ctx context.Context, userID int64, content Content, actions []Action) error
	Notify(ctx context.Context, userID int64, text string, actions []Action) error
}
