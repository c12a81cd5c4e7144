package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"

	"newsrag/internal/adapter/cache"
	"newsrag/internal/domain"
	"newsrag/internal/port"
)

// IngestUseCase is the document store: it consumes the connector's
// article stream and is the only writer to the vector index. Each
// article is chunked, embedded, and inserted; the index only ever grows
// (aside from retention pruning, which the serve loop drives).
type IngestUseCase struct {
	chunker  port.Chunker
	embedder port.Embedder
	index    port.VectorIndex
	cache    *cache.QueryCache
	logger   *log.Logger

	mu    sync.Mutex
	stats domain.IngestStats
}

// NewIngestUseCase creates the document store. cache may be nil.
func NewIngestUseCase(
	chunker port.Chunker,
	embedder port.Embedder,
	index port.VectorIndex,
	queryCache *cache.QueryCache,
	logger *log.Logger,
) *IngestUseCase {
	if logger == nil {
		logger = log.Default()
	}
	return &IngestUseCase{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		cache:    queryCache,
		logger:   logger,
	}
}

// Run consumes articles until the channel closes or the context is
// cancelled. A failed article is logged and skipped; ingestion itself
// never stops on a per-article error.
func (u *IngestUseCase) Run(ctx context.Context, articles <-chan domain.Article) {
	for {
		select {
		case <-ctx.Done():
			return
		case article, ok := <-articles:
			if !ok {
				return
			}
			if err := u.Ingest(article); err != nil {
				u.logger.Printf("ingest: skipping %s: %v", article.URL, err)
				u.mu.Lock()
				u.stats.Errors++
				u.mu.Unlock()
			}
		}
	}
}

// Ingest chunks one article, embeds every chunk, and inserts the
// resulting entries into the index.
func (u *IngestUseCase) Ingest(article domain.Article) error {
	chunks, err := u.chunker.Chunk(article)
	if err != nil {
		return fmt.Errorf("chunk article: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := u.embedder.Embed(texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(chunks))
	}

	inserted := 0
	for i, chunk := range chunks {
		entry := domain.IndexEntry{
			ChunkID: chunk.ID,
			Vector:  embeddings[i],
			Ref: domain.ArticleRef{
				Title:     article.Title,
				URL:       article.URL,
				Date:      article.PublishedAt,
				Source:    article.Source,
				Category:  article.Category,
				ChunkText: chunk.Text,
			},
		}
		if err := u.index.Insert(entry); err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
		inserted++
	}

	if u.cache != nil {
		u.cache.Invalidate()
	}

	u.mu.Lock()
	u.stats.Articles++
	u.stats.Chunks += inserted
	u.mu.Unlock()

	return nil
}

// Stats reports ingestion progress.
func (u *IngestUseCase) Stats() domain.IngestStats {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.stats
}
