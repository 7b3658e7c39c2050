package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Result is one nearest-neighbor hit.
type Result struct {
	ID    string
	Score float64
}

// Searcher finds the k nearest catalog vectors to a query vector.
type Searcher interface {
	Search(ctx context.Context, query []float32, k int) ([]Result, error)
}

// MemoryIndex is a brute-force cosine-similarity index. Vectors are
// normalized on insert so search is a plain dot product. It is the fallback
// backend for small catalogs and tests.
type MemoryIndex struct {
	mu      sync.RWMutex
	dims    int
	ids     []string
	vectors [][]float32
	byID    map[string]int
}

func NewMemoryIndex(dims int) *MemoryIndex {
	return &MemoryIndex{dims: dims, byID: make(map[string]int)}
}

// Add inserts or replaces a vector. Dimension mismatches are rejected.
func (m *MemoryIndex) Add(id string, vec []float32) error {
	if len(vec) != m.dims {
		return fmt.Errorf("vector index: %q has %d dimensions, want %d", id, len(vec), m.dims)
	}
	normalized := normalize(vec)

	m.mu.Lock()
	defer m.mu.Unlock()
	if pos, ok := m.byID[id]; ok {
		m.vectors[pos] = normalized
		return nil
	}
	m.byID[id] = len(m.ids)
	m.ids = append(m.ids, id)
	m.vectors = append(m.vectors, normalized)
	return nil
}

// Len reports the number of indexed vectors.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if len(query) != m.dims {
		return nil, fmt.Errorf("vector index: query has %d dimensions, want %d", len(query), m.dims)
	}
	if k <= 0 {
		return nil, nil
	}
	q := normalize(query)

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]Result, 0, len(m.ids))
	for i, id := range m.ids {
		results = append(results, Result{ID: id, Score: dot(q, m.vectors[i])})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	out := make([]float32, len(vec))
	if norm == 0 {
		copy(out, vec)
		return out
	}
	scale := float32(1 / math.Sqrt(norm))
	for i, v := range vec {
		out[i] = v * scale
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
