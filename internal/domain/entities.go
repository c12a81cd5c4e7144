package domain

import "time"

// Article is one normalized news item emitted by the ingestion connector.
// Identity is the source URL; an article is immutable once emitted.
type Article struct {
	URL         string
	Title       string
	Description string
	Text        string
	PublishedAt string
	Source      string
	Category    string
}

// Chunk is a token-bounded passage of one article's text, the unit of
// embedding and retrieval.
type Chunk struct {
	ID         string
	ArticleURL string
	Text       string
	TokenCount int
}

// ArticleRef is the answer-rendering metadata kept alongside each indexed
// vector. Chunks reference their article; they do not own it.
type ArticleRef struct {
	Title     string
	URL       string
	Date      string
	Source    string
	Category  string
	ChunkText string
}

// IndexEntry is what the vector index stores per chunk.
type IndexEntry struct {
	ChunkID   string
	Vector    []float32
	Ref       ArticleRef
	IndexedAt time.Time
}

// ScoredEntry is one retrieval hit, most similar first in a result slice.
type ScoredEntry struct {
	Entry IndexEntry
	Score float64
}

// Reference is one citation in an answer.
type Reference struct {
	Source string `json:"source"`
	Date   string `json:"date"`
	URL    string `json:"url"`
}

// Answer is the grounded response returned to the caller.
type Answer struct {
	Text          string
	References    []Reference
	RetrievedDocs int
}

// IngestStats tracks document-store progress for the health endpoint.
type IngestStats struct {
	Articles int
	Chunks   int
	Errors   int
}
