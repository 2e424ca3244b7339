package matcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchgraph/canonmatch/internal/config"
	"github.com/researchgraph/canonmatch/internal/vectorindex"
)

type fakeLookup struct {
	byID map[string]ConceptInfo
}

func (f *fakeLookup) Get(_ context.Context, conceptID string) (ConceptInfo, error) {
	return f.byID[conceptID], nil
}

type fakeBlacklist struct {
	blocked map[string]bool // "mentionID|conceptID"
}

func (f *fakeBlacklist) IsBlacklisted(_ context.Context, mentionID, conceptID string) (bool, error) {
	return f.blocked[mentionID+"|"+conceptID], nil
}

func TestMatcher_ClassifyBands(t *testing.T) {
	m := New(vectorindex.NewMemoryIndex(), &fakeLookup{}, &fakeBlacklist{}, *config.DefaultConfig())

	assert.Equal(t, BandHigh, m.Classify(0.95))
	assert.Equal(t, BandHigh, m.Classify(0.99))
	assert.Equal(t, BandMedium, m.Classify(0.80))
	assert.Equal(t, BandMedium, m.Classify(0.94))
	assert.Equal(t, BandLow, m.Classify(0.50))
	assert.Equal(t, BandLow, m.Classify(0.79))
	assert.Equal(t, BandNone, m.Classify(0.49))
}

func TestMatcher_FindCandidates_CitationBoostAndDomainMatch(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewMemoryIndex()
	require.NoError(t, idx.Upsert(ctx, "c1", []float64{1, 0}))
	require.NoError(t, idx.Upsert(ctx, "c2", []float64{1, 0}))

	lookup := &fakeLookup{byID: map[string]ConceptInfo{
		"c1": {Domain: "NLP", MentionCount: 3, PaperIDs: []string{"p-cited"}},
		"c2": {Domain: "vision", MentionCount: 9, PaperIDs: []string{"p-other"}},
	}}

	cfg := config.DefaultConfig()
	m := New(idx, lookup, &fakeBlacklist{}, *cfg)

	mention := Mention{Embedding: []float64{1, 0}, Domain: "NLP", CitedPaperIDs: []string{"p-cited"}}
	candidates, err := m.FindCandidates(ctx, "m1", mention, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	// c1 gets the citation boost and ranks first despite an identical raw score.
	assert.Equal(t, "c1", candidates[0].ConceptID)
	assert.True(t, candidates[0].DomainMatch)
	assert.InDelta(t, 1.0+cfg.CitationBoost.PerHit, candidates[0].BoostedScore, 1e-9)
	assert.Equal(t, "c2", candidates[1].ConceptID)
	assert.False(t, candidates[1].DomainMatch)
}

func TestMatcher_FindCandidates_CitationBoostCapped(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewMemoryIndex()
	require.NoError(t, idx.Upsert(ctx, "c1", []float64{1, 0}))

	lookup := &fakeLookup{byID: map[string]ConceptInfo{
		"c1": {Domain: "NLP", PaperIDs: []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}},
	}}

	cfg := config.DefaultConfig()
	m := New(idx, lookup, &fakeBlacklist{}, *cfg)

	mention := Mention{
		Embedding:     []float64{1, 0},
		Domain:        "NLP",
		CitedPaperIDs: []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"},
	}
	candidates, err := m.FindCandidates(ctx, "m1", mention, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.InDelta(t, 1.0+cfg.CitationBoost.Cap, candidates[0].BoostedScore, 1e-9)
}

func TestMatcher_FindCandidates_FiltersBlacklistedPairs(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewMemoryIndex()
	require.NoError(t, idx.Upsert(ctx, "c1", []float64{1, 0}))
	require.NoError(t, idx.Upsert(ctx, "c2", []float64{1, 0}))

	lookup := &fakeLookup{byID: map[string]ConceptInfo{
		"c1": {Domain: "NLP"},
		"c2": {Domain: "NLP"},
	}}
	bl := &fakeBlacklist{blocked: map[string]bool{"m1|c1": true}}

	m := New(idx, lookup, bl, *config.DefaultConfig())
	mention := Mention{Embedding: []float64{1, 0}, Domain: "NLP"}

	candidates, err := m.FindCandidates(ctx, "m1", mention, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "c2", candidates[0].ConceptID)
}

func TestMatcher_TieBreaking(t *testing.T) {
	ctx := context.Background()
	idx := vectorindex.NewMemoryIndex()
	require.NoError(t, idx.Upsert(ctx, "c-b", []float64{1, 0}))
	require.NoError(t, idx.Upsert(ctx, "c-a", []float64{1, 0}))

	lookup := &fakeLookup{byID: map[string]ConceptInfo{
		"c-a": {MentionCount: 5},
		"c-b": {MentionCount: 5},
	}}

	m := New(idx, lookup, &fakeBlacklist{}, *config.DefaultConfig())
	candidates, err := m.FindCandidates(ctx, "m1", Mention{Embedding: []float64{1, 0}}, 10)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	// Equal boosted score and mention_count: lowest concept id wins.
	assert.Equal(t, "c-a", candidates[0].ConceptID)
	assert.Equal(t, "c-b", candidates[1].ConceptID)
}
