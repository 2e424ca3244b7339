// Package matcher implements the Concept Matcher (spec §4.2):
// find_candidates ranks concepts by cosine similarity, boosted by a
// citation-graph signal and annotated with a domain-match flag, then
// classify buckets the top score into a confidence band.
package matcher

import (
	"context"
	"errors"
	"sort"

	"github.com/researchgraph/canonmatch/internal/config"
	"github.com/researchgraph/canonmatch/internal/vectorindex"
)

// Band is a confidence band over a boosted similarity score (spec §4.2).
type Band string

const (
	BandHigh   Band = "HIGH"
	BandMedium Band = "MEDIUM"
	BandLow    Band = "LOW"
	BandNone   Band = "NONE"
)

// ErrVectorIndexUnavailable wraps vectorindex.ErrUnavailable for callers
// that only import this package (spec §4.2: "VectorIndexUnavailable →
// retryable").
var ErrVectorIndexUnavailable = vectorindex.ErrUnavailable

// Candidate is one ranked, enriched match for a mention (spec §4.2
// find_candidates return shape).
type Candidate struct {
	ConceptID     string
	RawScore      float64
	BoostedScore  float64
	DomainMatch   bool
	ReasoningTag  string
	Band          Band
	MentionCount  int
}

// Mention is the narrow slice of ProblemMention the matcher needs: its
// embedding, domain, and the ids of papers it cites at depth 1.
type Mention struct {
	Embedding     []float64
	Domain        string
	CitedPaperIDs []string
}

// ConceptInfo is the narrow slice of ProblemConcept metadata the matcher
// needs beyond the vector index's (id, score) pair.
type ConceptInfo struct {
	Domain       string
	MentionCount int
	PaperIDs     []string // papers in which this concept has a linked mention
}

// ConceptLookup resolves ConceptInfo for a candidate concept id. Concrete
// implementations read through the ent client; tests use an in-memory map.
type ConceptLookup interface {
	Get(ctx context.Context, conceptID string) (ConceptInfo, error)
}

// BlacklistFilter reports whether a (mention, concept) pair has been
// permanently interdicted (spec §4.6, I7). Candidates it rejects are
// removed from find_candidates results entirely.
type BlacklistFilter interface {
	IsBlacklisted(ctx context.Context, mentionID, conceptID string) (bool, error)
}

// Matcher implements find_candidates and classify.
type Matcher struct {
	index     vectorindex.Index
	lookup    ConceptLookup
	blacklist BlacklistFilter
	cfg       config.Config
}

// New builds a Matcher.
func New(index vectorindex.Index, lookup ConceptLookup, blacklist BlacklistFilter, cfg config.Config) *Matcher {
	return &Matcher{index: index, lookup: lookup, blacklist: blacklist, cfg: cfg}
}

// FindCandidates returns up to topK ranked candidates for mentionID/mention,
// citation-boosted and domain-annotated, with blacklisted (mentionID,
// conceptID) pairs removed (spec §4.2, I7).
func (m *Matcher) FindCandidates(ctx context.Context, mentionID string, mention Mention, topK int) ([]Candidate, error) {
	if topK <= 0 {
		topK = 10
	}

	raw, err := m.index.Query(ctx, mention.Embedding, topK*2)
	if err != nil {
		if errors.Is(err, vectorindex.ErrUnavailable) {
			return nil, ErrVectorIndexUnavailable
		}
		return nil, err
	}

	cited := make(map[string]bool, len(mention.CitedPaperIDs))
	for _, id := range mention.CitedPaperIDs {
		cited[id] = true
	}

	candidates := make([]Candidate, 0, len(raw))
	for _, match := range raw {
		blacklisted, err := m.blacklist.IsBlacklisted(ctx, mentionID, match.ConceptID)
		if err != nil {
			return nil, err
		}
		if blacklisted {
			continue
		}

		info, err := m.lookup.Get(ctx, match.ConceptID)
		if err != nil {
			return nil, err
		}

		boost := m.citationBoost(cited, info.PaperIDs)
		boosted := match.Score + boost

		reasoning := "similarity"
		if boost > 0 {
			reasoning = "similarity+citation"
		}

		candidates = append(candidates, Candidate{
			ConceptID:    match.ConceptID,
			RawScore:     match.Score,
			BoostedScore: boosted,
			DomainMatch:  info.Domain == mention.Domain,
			ReasoningTag: reasoning,
			Band:         m.Classify(boosted),
			MentionCount: info.MentionCount,
		})
	}

	sortCandidates(candidates)

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

// citationBoost adds CitationBoost.PerHit for every paper the mention cites
// that also has a mention linked to the candidate concept, capped at
// CitationBoost.Cap, and never negative (spec §4.2).
func (m *Matcher) citationBoost(citedByMention map[string]bool, candidatePapers []string) float64 {
	hits := 0
	for _, paperID := range candidatePapers {
		if citedByMention[paperID] {
			hits++
		}
	}

	boost := float64(hits) * m.cfg.CitationBoost.PerHit
	if boost > m.cfg.CitationBoost.Cap {
		boost = m.cfg.CitationBoost.Cap
	}
	if boost < 0 {
		boost = 0
	}
	return boost
}

// Classify buckets a boosted score into a confidence band using the
// configured thresholds (spec §4.2).
func (m *Matcher) Classify(boostedScore float64) Band {
	switch {
	case boostedScore >= m.cfg.Thresholds.High:
		return BandHigh
	case boostedScore >= m.cfg.Thresholds.Medium:
		return BandMedium
	case boostedScore >= m.cfg.Thresholds.Low:
		return BandLow
	default:
		return BandNone
	}
}

// sortCandidates applies spec §4.2's tie-breaking: higher boosted score
// first; then higher mention_count; then lowest concept id lexicographically.
func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.BoostedScore != b.BoostedScore {
			return a.BoostedScore > b.BoostedScore
		}
		if a.MentionCount != b.MentionCount {
			return a.MentionCount > b.MentionCount
		}
		return a.ConceptID < b.ConceptID
	})
}
