package service

import (
	"sync"

	"github.com/google/uuid"
)

// contractLocks hands out one mutex per contract so writes to the same
// contract run one at a time while different contracts never contend.
type contractLocks struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newContractLocks() *contractLocks {
	return &contractLocks{entries: make(map[uuid.UUID]*lockEntry)}
}

func (l *contractLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &lockEntry{}
		l.entries[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, id)
		}
		l.mu.Unlock()
	}
}
