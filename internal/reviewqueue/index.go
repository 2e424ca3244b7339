package reviewqueue

import (
	"sort"
	"time"
)

// indexEntry is the in-memory priority-index's view of one review — just
// enough to pick the next claimable review without touching the database,
// mirroring the teacher's in-memory registry backed by a DB-authoritative
// source (rebuilt via Store.RefreshIndex on startup).
type indexEntry struct {
	reviewID       string
	priority       int
	createdAt      time.Time
	assigned       bool
	leaseExpiresAt *time.Time
}

// insertSorted inserts e into entries, kept sorted ascending by
// (priority, createdAt) — most urgent first.
func insertSorted(entries []*indexEntry, e *indexEntry) []*indexEntry {
	i := sort.Search(len(entries), func(i int) bool {
		if entries[i].priority != e.priority {
			return entries[i].priority > e.priority
		}
		return entries[i].createdAt.After(e.createdAt)
	})
	entries = append(entries, nil)
	copy(entries[i+1:], entries[i:])
	entries[i] = e
	return entries
}

// popMostUrgent removes and returns the first claimable entry: one that is
// unassigned, or assigned with an expired lease (spec §4.6's reclaimable
// lease). Returns nil if nothing is claimable.
func popMostUrgent(entries []*indexEntry, now time.Time) (*indexEntry, []*indexEntry) {
	for i, e := range entries {
		if !e.assigned || (e.leaseExpiresAt != nil && e.leaseExpiresAt.Before(now)) {
			out := append(append([]*indexEntry{}, entries[:i]...), entries[i+1:]...)
			return e, out
		}
	}
	return nil, entries
}

// removeByID drops the entry with the given id, if present.
func removeByID(entries []*indexEntry, id string) []*indexEntry {
	for i, e := range entries {
		if e.reviewID == id {
			return append(append([]*indexEntry{}, entries[:i]...), entries[i+1:]...)
		}
	}
	return entries
}
