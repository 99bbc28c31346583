package ledger

import "sync"

// symbolLocks serializes the read-recompute-write cycle of the projector per
// asset. Two concurrent mutations to the same asset's ledger must not
// interleave their projections; mutations to different assets may.
type symbolLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSymbolLocks() *symbolLocks {
	return &symbolLocks{locks: make(map[string]*sync.Mutex)}
}

func (s *symbolLocks) lock(symbol string) *sync.Mutex {
	s.mu.Lock()
	m, ok := s.locks[symbol]
	if !ok {
		m = &sync.Mutex{}
		s.locks[symbol] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m
}
