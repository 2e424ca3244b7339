// Package blacklist implements the append-only interdiction list of spec
// §4.6/§3/I7: a permanent block on a (mention, concept) pair unless a later
// entry supersedes it with never_allow = false.
package blacklist

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/researchgraph/canonmatch/ent"
	entblacklistentry "github.com/researchgraph/canonmatch/ent/blacklistentry"
)

// Entry is the narrow read shape Resolve operates on.
type Entry struct {
	MentionID  *string
	ConceptID  *string
	TextPattern *string
	NeverAllow bool
	CreatedAt  time.Time
}

// Resolve applies spec §4.6's latest-entry-wins supersession rule to the
// entries recorded for a single (mention, concept) key: it returns true
// only when the most recently created entry has NeverAllow = true. An empty
// slice (no entry ever recorded) is not blacklisted.
func Resolve(entries []Entry) bool {
	if len(entries) == 0 {
		return false
	}
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	return sorted[0].NeverAllow
}

// Store persists BlacklistEntry rows and answers IsBlacklisted queries
// through the ent client, implementing matcher.BlacklistFilter.
type Store struct {
	client *ent.Client
}

// New builds a Store.
func New(client *ent.Client) *Store {
	return &Store{client: client}
}

// Add records a new interdiction (or supersession, when neverAllow is
// false) for the given pair. At least one of mentionID/conceptID/pattern
// must be non-empty (spec §3).
func (s *Store) Add(ctx context.Context, mentionID, conceptID, textPattern, reason, creatorID string, neverAllow bool) (string, error) {
	id := uuid.NewString()
	create := s.client.BlacklistEntry.Create().
		SetID(id).
		SetNeverAllow(neverAllow).
		SetReason(reason).
		SetCreatorID(creatorID)

	if mentionID != "" {
		create = create.SetMentionID(mentionID)
	}
	if conceptID != "" {
		create = create.SetConceptID(conceptID)
	}
	if textPattern != "" {
		create = create.SetTextPattern(textPattern)
	}

	if err := create.Exec(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// IsBlacklisted implements matcher.BlacklistFilter: it loads every entry
// recorded for (mentionID, conceptID) and applies Resolve.
func (s *Store) IsBlacklisted(ctx context.Context, mentionID, conceptID string) (bool, error) {
	rows, err := s.client.BlacklistEntry.Query().
		Where(
			entblacklistentry.MentionID(mentionID),
			entblacklistentry.ConceptID(conceptID),
		).
		All(ctx)
	if err != nil {
		return false, err
	}

	entries := make([]Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, Entry{
			MentionID:  r.MentionID,
			ConceptID:  r.ConceptID,
			TextPattern: r.TextPattern,
			NeverAllow: r.NeverAllow,
			CreatedAt:  r.CreatedAt,
		})
	}
	return Resolve(entries), nil
}
