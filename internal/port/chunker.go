package port

import "newsrag/internal/domain"

type Chunker interface {
	Chunk(article domain.Article) ([]domain.Chunk, error)
}
