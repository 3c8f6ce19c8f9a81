// Package apperr defines the domain error taxonomy shared by services and the
// HTTP layer. Keeps handlers clean by centralizing classification in one place.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindNotFound
	KindAccessDenied
	KindBlockedByPeer
	KindBanned
	KindDeliveryFailed
	KindRateLimited
)

// Error carries a kind plus a user-presentable message, and optionally wraps
// an underlying cause so errors.Is/As keep working through it.
type Error struct {
	Kind  Kind
	Msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, cause: err}
}

// Constructors for the common kinds.

func Invalid(msg string) *Error        { return New(KindInvalid, msg) }
func NotFound(msg string) *Error       { return New(KindNotFound, msg) }
func AccessDenied(msg string) *Error   { return New(KindAccessDenied, msg) }
func BlockedByPeer(msg string) *Error  { return New(KindBlockedByPeer, msg) }
func Banned(msg string) *Error         { return New(KindBanned, msg) }
func DeliveryFailed(msg string) *Error { return New(KindDeliveryFailed, msg) }
func RateLimited(msg string) *Error    { return New(KindRateLimited, msg) }

// KindOf classifies any error. Repository-level gorm.ErrRecordNotFound and
// context cancellation are translated here so callers never branch on
// infrastructure errors directly.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return KindNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindInternal
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to the status code the gin layer responds with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalid:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAccessDenied:
		return http.StatusForbidden
	case KindBlockedByPeer, KindBanned:
		return http.StatusForbidden
	case KindDeliveryFailed:
		return http.StatusBadGateway
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the stable machine-readable code embedded in API responses.
func Code(kind Kind) string {
	switch kind {
	case KindInvalid:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindAccessDenied:
		return "access_denied"
	case KindBlockedByPeer:
		return "blocked_by_peer"
	case KindBanned:
		return "banned"
	case KindDeliveryFailed:
		return "delivery_failed"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}
