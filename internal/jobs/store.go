package jobs

import (
	"sort"
	"sync"

	"idconsole/internal/api"
)

// Store is the single source of truth for the visible job set.
type Store struct {
	mu      sync.RWMutex
	records []api.Job
	index   map[string]int
	version uint64

	subMu  sync.Mutex
	subs   map[int]chan struct{}
	nextID int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		index: make(map[string]int),
		subs:  make(map[int]chan struct{}),
	}
}

// Apply merges one job record. A known id is replaced in place so its
// position is preserved; an unknown id is appended. Records without an id are
// ignored and reported as not applied.
func (s *Store) Apply(job api.Job) bool {
	if job.ID == "" {
		return false
	}
	s.mu.Lock()
	s.put(job.Clone())
	s.version++
	s.mu.Unlock()
	s.notify()
	return true
}

// ApplyIf merges job only when keep approves it against the currently stored
// record (nil when unknown). It returns whether the record was applied.
func (s *Store) ApplyIf(job api.Job, keep func(current *api.Job) bool) bool {
	if job.ID == "" {
		return false
	}
	s.mu.Lock()
	var current *api.Job
	if pos, ok := s.index[job.ID]; ok {
		existing := s.records[pos].Clone()
		current = &existing
	}
	if keep != nil && !keep(current) {
		s.mu.Unlock()
		return false
	}
	s.put(job.Clone())
	s.version++
	s.mu.Unlock()
	s.notify()
	return true
}

// ReplaceAll atomically resets the visible set. Later duplicates in the input
// replace earlier ones in place.
func (s *Store) ReplaceAll(jobs []api.Job) {
	s.mu.Lock()
	s.records = make([]api.Job, 0, len(jobs))
	s.index = make(map[string]int, len(jobs))
	for _, job := range jobs {
		if job.ID == "" {
			continue
		}
		s.put(job.Clone())
	}
	s.version++
	s.mu.Unlock()
	s.notify()
}

// put must be called with mu held.
func (s *Store) put(job api.Job) {
	if pos, ok := s.index[job.ID]; ok {
		s.records[pos] = job
		return
	}
	s.index[job.ID] = len(s.records)
	s.records = append(s.records, job)
}

// Snapshot returns the records in insertion order.
func (s *Store) Snapshot() []api.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.records)
}

// Sorted returns the records ordered by UpdatedAt descending. Ties keep
// insertion order.
func (s *Store) Sorted() []api.Job {
	out := s.Snapshot()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Get returns the record for id.
func (s *Store) Get(id string) (api.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.index[id]
	if !ok {
		return api.Job{}, false
	}
	return s.records[pos].Clone(), true
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Version increments on every mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Pending returns the ids of non-terminal records in insertion order.
func (s *Store) Pending() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, job := range s.records {
		if !job.IsTerminal() {
			ids = append(ids, job.ID)
		}
	}
	return ids
}

// Subscribe returns a channel that receives a value after mutations. Bursts
// coalesce into a single pending notification. The returned func
// unsubscribes and closes the channel.
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

func cloneAll(records []api.Job) []api.Job {
	out := make([]api.Job, len(records))
	for i, job := range records {
		out[i] = job.Clone()
	}
	return out
}
