package store

import "sync"

// accountLocks hands out one mutex per account ID. Entries are never evicted;
// Update only locks IDs present in the provisioned account table.
type accountLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[int64]*sync.Mutex)}
}

// lock blocks until the account's mutex is held and returns its release func.
func (l *accountLocks) lock(accountID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

