package relay

import "sync"

// session is one user's relay pointer. Each user owns at most one; the
// embedded mutex serializes that user's relay operations without blocking
// anyone else's.
type session struct {
	mu        sync.Mutex
	active    bool
	chatID    int64
	partnerID int64
}

func (s *session) set(chatID, partnerID int64) {
	s.active = true
	s.chatID = chatID
	s.partnerID = partnerID
}

func (s *session) clear() {
	s.active = false
	s.chatID = 0
	s.partnerID = 0
}

// sessionTable hands out per-user session slots. Slots are created lazily
// and never reclaimed while the process lives; a cleared slot is a few
// words, and the table is bounded by the user population.
type sessionTable struct {
	mu    sync.Mutex
	slots map[int64]*session
}

func newSessionTable() *sessionTable {
	return &sessionTable{slots: make(map[int64]*session)}
}

func (t *sessionTable) slot(userID int64) *session {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.slots[userID]
	if !ok {
		s = &session{}
		t.slots[userID] = s
	}
	return s
}
