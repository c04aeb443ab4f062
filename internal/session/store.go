package session

import (
	"sync"

	"idconsole/internal/api"
)

// Store holds the active profile.
type Store struct {
	mu      sync.RWMutex
	profile *api.Profile

	subMu  sync.Mutex
	subs   map[int]chan struct{}
	nextID int
}

// NewStore returns a signed-out store.
func NewStore() *Store {
	return &Store{subs: make(map[int]chan struct{})}
}

// Active reports whether a profile is present.
func (s *Store) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile != nil
}

// Profile returns a copy of the current profile, or nil when signed out.
func (s *Store) Profile() *api.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	out := *s.profile
	out.Roles = append([]string(nil), s.profile.Roles...)
	out.Features = append([]string(nil), s.profile.Features...)
	if s.profile.DisplayName != nil {
		name := *s.profile.DisplayName
		out.DisplayName = &name
	}
	return &out
}

// Set replaces the current profile. A nil profile signs out.
func (s *Store) Set(profile *api.Profile) {
	var stored *api.Profile
	if profile != nil {
		copyVal := *profile
		copyVal.Roles = append([]string(nil), profile.Roles...)
		copyVal.Features = append([]string(nil), profile.Features...)
		copyVal.Normalize()
		stored = &copyVal
	}
	s.mu.Lock()
	s.profile = stored
	s.mu.Unlock()
	s.notify()
}

// Clear signs out.
func (s *Store) Clear() {
	s.Set(nil)
}

// Subscribe returns a coalescing change channel and an unsubscribe func.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
