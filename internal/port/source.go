package port

import "context"

// Source is the upstream news provider boundary: one paginated fetch of
// current headlines for a category.
type Source interface {
	Headlines(ctx context.Context, category string) ([]Headline, error)
}

// Headline is one raw provider item, before the connector normalizes it
// into a domain.Article.
type Headline struct {
	Title       string
	Description string
	URL         string
	PublishedAt string
	SourceName  string
}
