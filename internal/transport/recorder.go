package transport

import (
	"context"
	"sync"
)

// Recorder captures deliveries and notices for tests, optionally failing for
// selected recipients to exercise the best-effort paths.
type Recorder struct {
	mu         sync.Mutex
	Deliveries []Delivery
	Notices    []Notice
	failFor    map[int64]bool
}

type Delivery struct {
	UserID  int64
	Content Content
	Actions []Action
}

type Notice struct {
	UserID  int64
	Text    string
	Actions []Action
}

func NewRecorder() *Recorder {
	return &Recorder{failFor: map[int64]bool{}}
}

// FailFor makes subsequent sends to userID return ErrUnreachable.
func (r *Recorder) FailFor(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failFor[userID] = true
}

func (r *Recorder) Deliver(ctx context.Context, userID int64, content Content, actions []Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[userID] {
		return ErrUnreachable
	}
	r.Deliveries = append(r.Deliveries, Delivery{UserID: userID, Content: content, Actions: actions})
	return nil
}

func (r *Recorder) Notify(ctx context.Context, userID int64, text string, actions []Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[userID] {
		return ErrUnreachable
	}
	r.Notices = append(r.Notices, Notice{UserID: userID, Text: text, Actions: actions})
	return nil
}

// DeliveredTo returns deliveries addressed to userID.
func (r *Recorder) DeliveredTo(userID int64) []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Delivery
	for _, d := range r.Deliveries {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out
}
