// Package registry tracks the currently authenticated sessions of the process,
// one row per (account ID, remote address).
package registry

import (
	"context"
	"sort"
	"strconv"
	"time"
)

// Entry is one active-session row.
type Entry struct {
	SessionID string
	AccountID int64
	Login     string
	Address   string
	Since     time.Time
}

// Key identifies the row an entry occupies.
func (e Entry) Key() string {
	return rowKey(e.AccountID, e.Address)
}

// Registry is safe for concurrent use. Register replaces any row for the same
// (account, address) pair; List never returns a partially written row.
type Registry interface {
	Register(ctx context.Context, e Entry) error
	Deregister(ctx context.Context, accountID int64, address string) error
	ByAddress(ctx context.Context, address string) (*Entry, error)
	List(ctx context.Context) ([]Entry, error)
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
}

func rowKey(accountID int64, address string) string {
	return strconv.FormatInt(accountID, 10) + "|" + address
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Since.Equal(entries[j].Since) {
			return entries[i].Since.Before(entries[j].Since)
		}
		return entries[i].Key() < entries[j].Key()
	})
}

// Count returns the number of active rows.
func Count(ctx context.Context, r Registry) (int, error) {
	entries, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
