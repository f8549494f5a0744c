package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Memory is an exact in-process index over cosine distance. It backs
// development and tests; writes serialize on an internal mutex so concurrent
// ingestion and queries stay safe.
type Memory struct {
	mu      sync.RWMutex
	entries []memoryEntry
}

type memoryEntry struct {
	id       string
	vector   []float32
	text     string
	metadata Metadata
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Add(ctx context.Context, ids []string, vectors [][]float32, texts []string, metadatas []Metadata) error {
	if len(ids) != len(vectors) || len(ids) != len(texts) || len(ids) != len(metadatas) {
		return fmt.Errorf("add batch length mismatch: ids=%d vectors=%d texts=%d metadatas=%d",
			len(ids), len(vectors), len(texts), len(metadatas))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range ids {
		entry := memoryEntry{id: ids[i], vector: vectors[i], text: texts[i], metadata: metadatas[i]}
		// Re-ingestion of the same chunk id replaces the previous entry.
		replaced := false
		for j := range m.entries {
			if m.entries[j].id == entry.id {
				m.entries[j] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			m.entries = append(m.entries, entry)
		}
	}
	return nil
}

func (m *Memory) Query(ctx context.Context, vector []float32, k int, filter *Filter) ([]Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("query k must be positive, got %d", k)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Match
	for _, e := range m.entries {
		if filter != nil && !filter.matches(e.metadata) {
			continue
		}
		matches = append(matches, Match{
			ID:       e.id,
			Text:     e.text,
			Metadata: e.metadata,
			Distance: cosineDistance(vector, e.vector),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (m *Memory) DeleteWhere(ctx context.Context, filter Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	deleted := 0
	for _, e := range m.entries {
		if filter.matches(e.metadata) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return deleted, nil
}

func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *Memory) AllMetadata(ctx context.Context) ([]Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	metas := make([]Metadata, len(m.entries))
	for i, e := range m.entries {
		metas[i] = e.metadata
	}
	return metas, nil
}

// cosineDistance returns 1 - cosine similarity, in [0, 2]. Mismatched or
// zero vectors report maximal dissimilarity of 1.
func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
