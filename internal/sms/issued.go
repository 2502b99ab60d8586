package sms

import (
	"sync"

	"github.com/aelexs/smsgateway/internal/domain"
)

// DefaultIssuedLimit is how many message ids a client that answers status
// queries from memory remembers.
const DefaultIssuedLimit = 10_000

// IssuedIDs remembers the most recent message ids handed out by a client.
// Once limit ids are held, adding one forgets the oldest. Safe for
// concurrent use.
type IssuedIDs struct {
	mu    sync.Mutex
	limit int
	ids   map[domain.MessageID]struct{}
	order []domain.MessageID // ring buffer, oldest at next once full
	next  int
}

// NewIssuedIDs creates a set holding at most limit ids. A limit below one
// uses DefaultIssuedLimit.
func NewIssuedIDs(limit int) *IssuedIDs {
	if limit < 1 {
		limit = DefaultIssuedLimit
	}
	return &IssuedIDs{
		limit: limit,
		ids:   make(map[domain.MessageID]struct{}),
		order: make([]domain.MessageID, 0, limit),
	}
}

// Add records id, evicting the oldest id when the set is full.
func (s *IssuedIDs) Add(id domain.MessageID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return
	}
	if len(s.order) < s.limit {
		s.order = append(s.order, id)
	} else {
		delete(s.ids, s.order[s.next])
		s.order[s.next] = id
		s.next = (s.next + 1) % s.limit
	}
	s.ids[id] = struct{}{}
}

// Contains reports whether id is still remembered.
func (s *IssuedIDs) Contains(id domain.MessageID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of ids held.
func (s *IssuedIDs) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
