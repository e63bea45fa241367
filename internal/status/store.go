// Package status keeps a read-only view of the loop's most recent cycle for the
// admin HTTP endpoints.
package status

import (
	"sync"
	"time"

	"touchkeys/internal/keys"
)

// Snapshot is the state published after a cycle.
type Snapshot struct {
	Cycle     uint64      `json:"cycle"`
	Keys      keys.KeySet `json:"-"`
	Held      []string    `json:"held"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Store is the concurrency-safe holder of the latest Snapshot. The loop is the
// only writer; HTTP handlers read copies.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{now: time.Now, snap: Snapshot{Keys: keys.NewKeySet(), Held: []string{}}}
}

// Publish records ks as the key set of the next cycle. ks is copied, so the
// caller may keep using it.
func (s *Store) Publish(ks keys.KeySet) {
	cp := make(keys.KeySet, len(ks))
	for k := range ks {
		cp[k] = struct{}{}
	}
	held := cp.Strings()
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{
		Cycle:     s.snap.Cycle + 1,
		Keys:      cp,
		Held:      held,
		UpdatedAt: now,
	}
}

// Snapshot returns the latest published state. The returned key set is shared
// and must not be modified.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
