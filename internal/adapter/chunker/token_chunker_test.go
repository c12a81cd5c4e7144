package chunker

import (
	"strings"
	"testing"

	"newsrag/internal/adapter/analyzer"
	"newsrag/internal/domain"
)

func TestTokenChunkerBasic(t *testing.T) {
	tokenizer := analyzer.NewTokenizer()
	chunker := NewTokenChunker(400, tokenizer)

	article := domain.Article{
		URL:  "https://example.com/a",
		Text: "AI Breakthrough. New model released.",
	}

	chunks, err := chunker.Chunk(article)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk for a short article, got %d", len(chunks))
	}

	chunk := chunks[0]
	if chunk.ID == "" {
		t.Error("chunk has empty ID")
	}
	if chunk.ArticleURL != article.URL {
		t.Errorf("expected ArticleURL %q, got %q", article.URL, chunk.ArticleURL)
	}
	if !strings.Contains(chunk.Text, "AI Breakthrough") {
		t.Errorf("chunk text missing title: %q", chunk.Text)
	}
	if chunk.TokenCount <= 0 {
		t.Errorf("expected positive token count, got %d", chunk.TokenCount)
	}
}

func TestTokenChunkerEmptyText(t *testing.T) {
	tokenizer := analyzer.NewTokenizer()
	chunker := NewTokenChunker(400, tokenizer)

	for _, text := range []string{"", "   ", "\n\t"} {
		chunks, err := chunker.Chunk(domain.Article{URL: "https://example.com/a", Text: text})
		if err != nil {
			t.Fatal(err)
		}
		if len(chunks) != 0 {
			t.Errorf("expected zero chunks for text %q, got %d", text, len(chunks))
		}
	}
}

func TestTokenChunkerRespectsBudget(t *testing.T) {
	tokenizer := analyzer.NewTokenizer()
	chunker := NewTokenChunker(20, tokenizer)

	var sentences []string
	for i := 0; i < 30; i++ {
		sentences = append(sentences, "The quick brown fox jumps over the lazy dog.")
	}
	article := domain.Article{
		URL:  "https://example.com/long",
		Text: strings.Join(sentences, " "),
	}

	chunks, err := chunker.Chunk(article)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.TokenCount > 20 {
			t.Errorf("chunk %d exceeds token budget: %d", i, c.TokenCount)
		}
	}
}

func TestTokenChunkerLongSentence(t *testing.T) {
	tokenizer := analyzer.NewTokenizer()
	chunker := NewTokenChunker(10, tokenizer)

	// One sentence, far over the budget, no closing punctuation.
	article := domain.Article{
		URL:  "https://example.com/run-on",
		Text: strings.Repeat("word ", 100),
	}

	chunks, err := chunker.Chunk(article)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected oversized sentence to be split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if c.TokenCount > 10 {
			t.Errorf("chunk %d exceeds token budget: %d", i, c.TokenCount)
		}
	}
}

func TestTokenChunkerDeterministic(t *testing.T) {
	tokenizer := analyzer.NewTokenizer()
	chunker := NewTokenChunker(15, tokenizer)

	article := domain.Article{
		URL:  "https://example.com/a",
		Text: "First sentence here. Second sentence follows. Third one closes it out. And a fourth for good measure.",
	}

	first, err := chunker.Chunk(article)
	if err != nil {
		t.Fatal(err)
	}
	second, err := chunker.Chunk(article)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Text != second[i].Text {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestChunkIDsUniquePerArticle(t *testing.T) {
	tokenizer := analyzer.NewTokenizer()
	chunker := NewTokenChunker(10, tokenizer)

	article := domain.Article{
		URL:  "https://example.com/a",
		Text: "One sentence over here. Another sentence over there. Yet another sentence to push past the budget.",
	}

	chunks, err := chunker.Chunk(article)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for _, c := range chunks {
		if seen[c.ID] {
			t.Errorf("duplicate chunk ID: %s", c.ID)
		}
		seen[c.ID] = true
	}
}
