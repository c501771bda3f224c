package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"smart_wallet/internal/domain"
)

// Tracker records the last activity of a session and decides when it has
// been idle for too long.
type Tracker struct {
	last time.Time
	idle time.Duration
	now  func() time.Time
}

func NewTracker(idle time.Duration, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{last: now(), idle: idle, now: now}
}

// Touch records activity now and may move the window
func (t *Tracker) Touch(idle time.Duration) {
	t.last = t.now()
	t.idle = idle
}

// Expired reports whether no activity happened within the idle window
func (t *Tracker) Expired() bool {
	return !t.now().Before(t.Deadline())
}

// Deadline is the moment the session ends without further activity
func (t *Tracker) Deadline() time.Time {
	return t.last.Add(t.idle)
}

type entry struct {
	user    domain.User
	tracker *Tracker
}

// MemoryStore keeps sessions in process, for tests and single-node runs
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*entry
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore uses now as its clock; nil means time.Now
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{sessions: make(map[string]*entry), now: now}
}

func (s *MemoryStore) Save(_ context.Context, id string, u domain.User, idle time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &entry{user: u, tracker: NewTracker(idle, s.now)}
	return nil
}

// live returns the session or removes it when it has expired. Callers hold mu.
func (s *MemoryStore) live(id string) (*entry, bool) {
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if e.tracker.Expired() {
		delete(s.sessions, id)
		return nil, false
	}
	return e, true
}

func (s *MemoryStore) Load(_ context.Context, id string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return domain.User{}, ErrExpired
	}
	return e.user, nil
}

func (s *MemoryStore) Touch(_ context.Context, id string, idle time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return ErrExpired
	}
	e.tracker.Touch(idle)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Sessions(_ context.Context, username string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id := range s.sessions {
		if e, ok := s.live(id); ok && e.user.Username == username {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Len counts sessions that have not expired
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id := range s.sessions {
		if _, ok := s.live(id); ok {
			n++
		}
	}
	return n
}
