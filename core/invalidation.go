package core

import (
	"sort"
	"time"
)

// InvalidationEntry records that a refresh token was rejected by the backend
type InvalidationEntry struct {
	AccountID     string
	RefreshToken  string // the rejected token
	InvalidatedAt time.Time
}

// InvalidationCache maps account ids to the refresh token last known to be bad.
// It is not safe for concurrent use; the owner serializes access.
type InvalidationCache struct {
	entries map[string]InvalidationEntry
}

func NewInvalidationCache(entries ...InvalidationEntry) *InvalidationCache {
	c := &InvalidationCache{entries: make(map[string]InvalidationEntry, len(entries))}
	for _, e := range entries {
		if e.AccountID == "" || e.RefreshToken == "" {
			continue
		}
		c.entries[e.AccountID] = e
	}
	return c
}

func (c *InvalidationCache) Len() int {
	return len(c.entries)
}

// Mark inserts or overwrites the entry for its account and reports whether
// the account/token pair was not already recorded.
func (c *InvalidationCache) Mark(entry InvalidationEntry) bool {
	if current, ok := c.entries[entry.AccountID]; ok && current.RefreshToken == entry.RefreshToken {
		return false
	}
	c.entries[entry.AccountID] = entry
	return true
}

// IsValid reports whether the account has no live invalidation entry
func (c *InvalidationCache) IsValid(accountID string) bool {
	_, invalid := c.entries[accountID]
	return !invalid
}

func (c *InvalidationCache) Get(accountID string) (InvalidationEntry, bool) {
	e, ok := c.entries[accountID]
	return e, ok
}

// Reconcile drops every entry whose account shows a different refresh token
// in the snapshot and returns the dropped entries. Accounts missing from the
// snapshot keep their entries.
func (c *InvalidationCache) Reconcile(snapshot Snapshot) []InvalidationEntry {
	var pruned []InvalidationEntry
	for _, r := range snapshot.Records {
		e, ok := c.entries[r.AccountID]
		if !ok || e.RefreshToken == r.RefreshToken {
			continue
		}
		delete(c.entries, r.AccountID)
		pruned = append(pruned, e)
	}
	return pruned
}

// Entries returns the entries ordered by account id
func (c *InvalidationCache) Entries() []InvalidationEntry {
	out := make([]InvalidationEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}

func (c *InvalidationCache) Clone() *InvalidationCache {
	return NewInvalidationCache(c.Entries()...)
}
