package conversation

import "sync"

// sessionLocks serializes updates per chat so two racing webhook deliveries
// for the same session cannot interleave a load-modify-save cycle. Distinct
// chats proceed in parallel. Entries are refcounted and dropped once the
// last holder unlocks, so the map stays bounded by concurrent chats rather
// than chats ever seen.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[int64]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[int64]*sessionLock)}
}

func (s *sessionLocks) lock(chatID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &sessionLock{}
		s.locks[chatID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, chatID)
		}
		s.mu.Unlock()
	}
}
