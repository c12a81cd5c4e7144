package index

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"newsrag/internal/domain"
)

// MemoryIndex is a brute-force cosine-similarity vector index.
//
// Entries are held in insertion order; similarity ties resolve in favor
// of the earlier insertion. Brute force is O(n·d) per query, which is
// fine for a rolling window of recent news. The RWMutex guarantees a
// Search observes a consistent snapshot while the ingestion goroutine
// keeps inserting.
type MemoryIndex struct {
	mu        sync.RWMutex
	dimension int
	entries   []domain.IndexEntry
}

func NewMemoryIndex(dimension int) *MemoryIndex {
	return &MemoryIndex{dimension: dimension}
}

// Insert adds one entry. The entry's vector must match the index
// dimension.
func (s *MemoryIndex) Insert(entry domain.IndexEntry) error {
	if len(entry.Vector) != s.dimension {
		return fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.dimension, len(entry.Vector))
	}
	if entry.IndexedAt.IsZero() {
		entry.IndexedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// Search returns up to k entries by descending cosine similarity.
func (s *MemoryIndex) Search(query []float32, k int) ([]domain.ScoredEntry, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(query))
	}
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil, nil
	}

	scored := make([]domain.ScoredEntry, len(s.entries))
	for i, entry := range s.entries {
		scored[i] = domain.ScoredEntry{
			Entry: entry,
			Score: cosineSimilarity(query, entry.Vector),
		}
	}

	// Stable sort keeps insertion order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}

	results := make([]domain.ScoredEntry, k)
	copy(results, scored[:k])
	return results, nil
}

// Count returns the number of stored entries.
func (s *MemoryIndex) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Prune drops entries indexed before the cutoff, preserving the order of
// the survivors, and reports how many were removed.
func (s *MemoryIndex) Prune(before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, entry := range s.entries {
		if !entry.IndexedAt.Before(before) {
			kept = append(kept, entry)
		}
	}
	removed := len(s.entries) - len(kept)
	s.entries = kept
	return removed
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
