package connector

import (
	"context"
	"log"
	"net/url"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"newsrag/internal/domain"
	"newsrag/internal/port"
)

// Connector polls the news provider on a fixed interval and emits each
// previously-unseen article exactly once onto its output channel.
//
// The seen set is owned by whichever single goroutine drives the
// connector (Run, or a caller using PollOnce); it is never shared.
type Connector struct {
	source     port.Source
	categories []string
	interval   time.Duration
	excludes   []string
	seen       map[string]struct{}
	out        chan domain.Article
	logger     *log.Logger
}

func New(source port.Source, categories []string, interval time.Duration, excludes []string, buffer int, logger *log.Logger) *Connector {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if buffer < 0 {
		buffer = 0
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Connector{
		source:     source,
		categories: categories,
		interval:   interval,
		excludes:   excludes,
		seen:       make(map[string]struct{}),
		out:        make(chan domain.Article, buffer),
		logger:     logger,
	}
}

// Articles is the stream of emitted articles. Closed when Run returns.
func (c *Connector) Articles() <-chan domain.Article {
	return c.out
}

// Run polls until the context is cancelled. Transient provider failures
// skip the affected category; an unexpected panic inside a cycle is
// logged and followed by a full-interval pause. Run never returns an
// error: every recoverable failure is equivalent to "no new articles
// this cycle".
func (c *Connector) Run(ctx context.Context) {
	defer close(c.out)

	c.logger.Printf("connector started: categories=%v interval=%s", c.categories, c.interval)

	for {
		for _, article := range c.PollOnce(ctx) {
			select {
			case c.out <- article:
			case <-ctx.Done():
				c.logger.Printf("connector stopped: %v", ctx.Err())
				return
			}
		}

		select {
		case <-ctx.Done():
			c.logger.Printf("connector stopped: %v", ctx.Err())
			return
		case <-time.After(c.interval):
		}
	}
}

// PollOnce runs one poll cycle over all categories and returns the
// newly-seen articles. A panic anywhere inside the cycle is contained
// here so the poll loop outlives it.
func (c *Connector) PollOnce(ctx context.Context) (articles []domain.Article) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Printf("connector: unexpected error in poll cycle: %v", r)
		}
	}()

	for _, category := range c.categories {
		if ctx.Err() != nil {
			return articles
		}
		articles = append(articles, c.pollCategory(ctx, category)...)
	}
	return articles
}

func (c *Connector) pollCategory(ctx context.Context, category string) []domain.Article {
	headlines, err := c.source.Headlines(ctx, category)
	if err != nil {
		c.logger.Printf("connector: fetching %s headlines failed, skipping cycle: %v", category, err)
		return nil
	}

	var fresh []domain.Article
	for _, h := range headlines {
		article, ok := c.normalize(h, category)
		if !ok {
			continue
		}
		if _, dup := c.seen[article.URL]; dup {
			continue
		}
		c.seen[article.URL] = struct{}{}
		fresh = append(fresh, article)
	}

	if len(fresh) == 0 {
		c.logger.Printf("connector: no new %s articles", category)
	} else {
		c.logger.Printf("connector: %d new %s articles", len(fresh), category)
	}
	return fresh
}

// normalize builds an Article from one provider item. Items without a
// URL, title, or publication date cannot satisfy the downstream schema
// and are dropped; excluded URLs are dropped silently.
func (c *Connector) normalize(h port.Headline, category string) (domain.Article, bool) {
	if h.URL == "" || h.Title == "" || h.PublishedAt == "" {
		return domain.Article{}, false
	}
	if c.excluded(h.URL) {
		return domain.Article{}, false
	}

	text := h.Title
	if h.Description != "" {
		text = h.Title + ". " + h.Description
	}

	source := h.SourceName
	if source == "" {
		source = "Unknown"
	}

	return domain.Article{
		URL:         h.URL,
		Title:       h.Title,
		Description: h.Description,
		Text:        text,
		PublishedAt: h.PublishedAt,
		Source:      source,
		Category:    category,
	}, true
}

// excluded reports whether the article URL matches any configured
// exclude glob. Patterns match against host/path, e.g.
// "**/sponsored/**".
func (c *Connector) excluded(raw string) bool {
	if len(c.excludes) == 0 {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	target := u.Host + u.Path

	for _, pattern := range c.excludes {
		if ok, err := doublestar.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}
