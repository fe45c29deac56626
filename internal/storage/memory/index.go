package memory

import (
	"time"

	"github.com/google/btree"
)

// expiryItem is one (instant, key) pair of the expiry index.
type expiryItem struct {
	at  time.Time
	key string
}

func expiryLess(a, b expiryItem) bool {
	if !a.at.Equal(b.at) {
		return a.at.Before(b.at)
	}
	return a.key < b.key
}

// ExpiryIndex orders keys by their expiry instant.
//
// It is not safe for concurrent use; the Store guards it with the same lock
// as the keyspace map so both are always updated together.
type ExpiryIndex struct {
	tree *btree.BTreeG[expiryItem]
}

// NewExpiryIndex creates an empty index.
func NewExpiryIndex() *ExpiryIndex {
	return &ExpiryIndex{
		tree: btree.NewG(32, expiryLess),
	}
}

// Add inserts (at, key).
func (i *ExpiryIndex) Add(at time.Time, key string) {
	i.tree.ReplaceOrInsert(expiryItem{at: at, key: key})
}

// Remove deletes (at, key) and reports whether it was present.
func (i *ExpiryIndex) Remove(at time.Time, key string) bool {
	_, ok := i.tree.Delete(expiryItem{at: at, key: key})
	return ok
}

// Earliest returns the pair with the smallest instant.
func (i *ExpiryIndex) Earliest() (time.Time, string, bool) {
	it, ok := i.tree.Min()
	if !ok {
		return time.Time{}, "", false
	}
	return it.at, it.key, true
}

// PopEarliest removes and returns the pair with the smallest instant.
func (i *ExpiryIndex) PopEarliest() (time.Time, string, bool) {
	it, ok := i.tree.DeleteMin()
	if !ok {
		return time.Time{}, "", false
	}
	return it.at, it.key, true
}

// Len returns the number of indexed keys.
func (i *ExpiryIndex) Len() int {
	return i.tree.Len()
}

// Clear removes every pair.
func (i *ExpiryIndex) Clear() {
	i.tree.Clear(false)
}

// CountDue returns how many keys expire at or before now.
func (i *ExpiryIndex) CountDue(now time.Time) int {
	n := 0
	i.tree.Ascend(func(it expiryItem) bool {
		if it.at.After(now) {
			return false
		}
		n++
		return true
	})
	return n
}
