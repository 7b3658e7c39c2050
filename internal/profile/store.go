package profile

import "sync/atomic"

// Store holds the current profile Snapshot behind an atomic pointer. Readers
// get a consistent snapshot with a single load; writers swap in rebuilt
// snapshots wholesale.
type Store struct {
	current atomic.Pointer[Snapshot]
}

func NewStore() *Store {
	s := &Store{}
	s.current.Store(EmptySnapshot())
	return s
}

// Snapshot returns the latest snapshot. Never nil.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Swap publishes a rebuilt snapshot. Nil snapshots are ignored.
func (s *Store) Swap(snap *Snapshot) {
	if snap == nil {
		return
	}
	s.current.Store(snap)
}
