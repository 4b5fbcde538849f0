package server

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MeKo-Tech/photofilter/internal/session"
)

// ErrTooManySessions is returned when the store is full.
var ErrTooManySessions = errors.New("too many sessions")

// entry guards one session. A session is single-threaded, so every request
// touching it holds mu for the whole operation.
type entry struct {
	session  *session.Session
	lastUsed time.Time
	mu       sync.Mutex
}

// Store holds live editing sessions keyed by UUID.
type Store struct {
	now     func() time.Time
	entries sync.Map // map[string]*entry
	count   atomic.Int32
	created atomic.Int64
	max     int
}

// NewStore creates a store holding at most max sessions.
func NewStore(max int) *Store {
	if max <= 0 {
		max = 1
	}
	return &Store{max: max, now: time.Now}
}

// Add registers s and returns its new id.
func (st *Store) Add(s *session.Session) (string, error) {
	if int(st.count.Add(1)) > st.max {
		st.count.Add(-1)
		return "", ErrTooManySessions
	}
	id := uuid.New().String()
	st.entries.Store(id, &entry{session: s, lastUsed: st.now()})
	st.created.Add(1)
	return id, nil
}

// With runs fn with exclusive access to the session id and marks the
// session as used when fn returns. It reports false when the id is unknown.
func (st *Store) With(id string, fn func(s *session.Session)) bool {
	v, ok := st.entries.Load(id)
	if !ok {
		return false
	}
	e := v.(*entry)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		// deleted while waiting for the lock
		return false
	}
	fn(e.session)
	e.lastUsed = st.now()
	return true
}

// Delete removes the session id. It reports false when the id is unknown.
func (st *Store) Delete(id string) bool {
	v, ok := st.entries.LoadAndDelete(id)
	if !ok {
		return false
	}
	e := v.(*entry)
	e.mu.Lock()
	e.session = nil
	e.mu.Unlock()
	st.count.Add(-1)
	return true
}

// Sweep deletes sessions idle for longer than ttl and returns how many were
// removed. The idle check and the removal happen under the session lock, so
// a session used concurrently with the sweep is kept.
func (st *Store) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-ttl)

	removed := 0
	st.entries.Range(func(key, value any) bool {
		e := value.(*entry)
		e.mu.Lock()
		defer e.mu.Unlock()

		if e.session == nil || !e.lastUsed.Before(cutoff) {
			return true
		}
		if st.entries.CompareAndDelete(key, e) {
			e.session = nil
			st.count.Add(-1)
			removed++
		}
		return true
	})
	return removed
}

// Len returns the number of live sessions.
func (st *Store) Len() int { return int(st.count.Load()) }

// Created returns the number of sessions created since start.
func (st *Store) Created() int64 { return st.created.Load() }

// Max returns the session capacity.
func (st *Store) Max() int { return st.max }
