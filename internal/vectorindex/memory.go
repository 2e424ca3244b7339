package vectorindex

import (
	"context"
	"sort"
	"sync"
)

// MemoryIndex is an in-memory Index used by unit and scenario tests (spec
// §8: "every scenario above must be expressible as a deterministic test
// given a mocked embedding function").
type MemoryIndex struct {
	mu         sync.RWMutex
	embeddings map[string][]float64
}

// NewMemoryIndex builds an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{embeddings: make(map[string][]float64)}
}

// Query implements Index.
func (m *MemoryIndex) Query(_ context.Context, vec []float64, topK int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, len(m.embeddings))
	for id, e := range m.embeddings {
		matches = append(matches, Match{ConceptID: id, Score: Cosine(vec, e)})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ConceptID < matches[j].ConceptID
	})

	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Upsert implements Index.
func (m *MemoryIndex) Upsert(_ context.Context, conceptID string, vec []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embeddings[conceptID] = vec
	return nil
}

// Delete implements Index.
func (m *MemoryIndex) Delete(_ context.Context, conceptID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.embeddings, conceptID)
	return nil
}
