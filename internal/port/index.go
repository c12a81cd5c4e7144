package port

import (
	"time"

	"newsrag/internal/domain"
)

// VectorIndex stores embedded chunks and answers k-nearest-neighbor
// queries by cosine similarity. Implementations must be safe for
// concurrent Insert and Search.
type VectorIndex interface {
	// Insert adds one entry. All vectors in an index share one dimension;
	// a mismatched vector is rejected with an error.
	Insert(entry domain.IndexEntry) error

	// Search returns up to k entries most similar to the query vector,
	// descending by similarity, ties broken by insertion order (earlier
	// wins). An empty index yields an empty result, never an error.
	Search(query []float32, k int) ([]domain.ScoredEntry, error)

	// Count returns the number of stored entries.
	Count() int

	// Prune drops entries indexed before the cutoff and reports how many
	// were removed.
	Prune(before time.Time) int
}
