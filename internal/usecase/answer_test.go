package usecase

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"newsrag/internal/adapter/analyzer"
	"newsrag/internal/adapter/cache"
	"newsrag/internal/adapter/chunker"
	"newsrag/internal/adapter/embedding"
	"newsrag/internal/adapter/index"
	"newsrag/internal/domain"
)

type mockLLM struct {
	mu         sync.Mutex
	calls      int
	lastSystem string
	lastUser   string
	reply      string
	err        error
}

func (m *mockLLM) Generate(prompt string) (string, error) {
	return m.GenerateWithSystem("", prompt)
}

func (m *mockLLM) GenerateWithSystem(systemPrompt, userPrompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastSystem = systemPrompt
	m.lastUser = userPrompt
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

type countingEmbedder struct {
	inner *embedding.MockEmbedder
	mu    sync.Mutex
	calls int
}

func (c *countingEmbedder) Embed(texts []string) ([][]float32, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Embed(texts)
}

func (c *countingEmbedder) Dimension() int    { return c.inner.Dimension() }
func (c *countingEmbedder) ModelName() string { return c.inner.ModelName() }

func newAnswerFixture(llm *mockLLM, queryCache *cache.QueryCache) (*AnswerUseCase, *IngestUseCase) {
	tokenizer := analyzer.NewTokenizer()
	idx := index.NewMemoryIndex(testDim)
	embedder := embedding.NewMockEmbedder(testDim)

	ingest := NewIngestUseCase(
		chunker.NewTokenChunker(400, tokenizer),
		embedder,
		idx,
		queryCache,
		discardLogger(),
	)
	answer := NewAnswerUseCase(embedder, idx, llm, tokenizer, queryCache, 5, 3000)
	return answer, ingest
}

func TestAnswerEmptyIndexFallback(t *testing.T) {
	llm := &mockLLM{reply: "should never be used"}
	answer, _ := newAnswerFixture(llm, nil)

	for _, q := range []string{"What AI news is there?", "", "anything at all"} {
		got, err := answer.Answer(q)
		if err != nil {
			t.Fatal(err)
		}
		if got.Text != FallbackAnswer {
			t.Errorf("q=%q: expected fallback answer, got %q", q, got.Text)
		}
		if len(got.References) != 0 {
			t.Errorf("q=%q: expected zero references, got %d", q, len(got.References))
		}
		if got.RetrievedDocs != 0 {
			t.Errorf("q=%q: expected retrieved_docs=0, got %d", q, got.RetrievedDocs)
		}
	}

	if llm.calls != 0 {
		t.Errorf("LLM must not be invoked with empty context, got %d calls", llm.calls)
	}
}

func TestAnswerGroundedWithCitations(t *testing.T) {
	llm := &mockLLM{reply: "According to Tech News, a new model was released on January 18, 2026."}
	answer, ingest := newAnswerFixture(llm, nil)

	if err := ingest.Ingest(testArticle()); err != nil {
		t.Fatal(err)
	}

	got, err := answer.Answer("What AI news is there?")
	if err != nil {
		t.Fatal(err)
	}

	if got.Text != llm.reply {
		t.Errorf("unexpected answer text: %q", got.Text)
	}
	if got.RetrievedDocs == 0 {
		t.Error("expected retrieved_docs > 0")
	}
	if len(got.References) == 0 {
		t.Fatal("expected at least one reference")
	}

	ref := got.References[0]
	if ref.Source != "Tech News" || ref.Date != "2026-01-18T12:00:00Z" || ref.URL != "https://x.com/a" {
		t.Errorf("unexpected reference: %+v", ref)
	}

	if !strings.Contains(llm.lastUser, "New model released") {
		t.Error("prompt missing retrieved chunk text")
	}
	if !strings.Contains(llm.lastUser, "What AI news is there?") {
		t.Error("prompt missing the question")
	}
	if !strings.Contains(llm.lastSystem, "ONLY using the provided context") {
		t.Error("system prompt must forbid answering beyond the context")
	}
}

func TestAnswerReferencesFollowRetrievalOrder(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	tokenizer := analyzer.NewTokenizer()
	idx := index.NewMemoryIndex(2)
	answer := NewAnswerUseCase(directionalEmbedder{}, idx, llm, tokenizer, nil, 5, 3000)

	entries := []domain.IndexEntry{
		{ChunkID: "far", Vector: []float32{0, 1}, Ref: domain.ArticleRef{URL: "https://example.com/far", Source: "B", Date: "d", ChunkText: "far"}},
		{ChunkID: "near", Vector: []float32{1, 0}, Ref: domain.ArticleRef{URL: "https://example.com/near", Source: "A", Date: "d", ChunkText: "near"}},
	}
	for _, e := range entries {
		if err := idx.Insert(e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := answer.Answer("query")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.References) != 2 {
		t.Fatalf("expected 2 references, got %d", len(got.References))
	}
	if got.References[0].URL != "https://example.com/near" {
		t.Errorf("references not in retrieval order: %+v", got.References)
	}
}

// directionalEmbedder always embeds to (1,0) so ranking is decided by the
// stored vectors alone.
type directionalEmbedder struct{}

func (directionalEmbedder) Embed(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}
func (directionalEmbedder) Dimension() int    { return 2 }
func (directionalEmbedder) ModelName() string { return "directional" }

func TestAnswerDeduplicatesReferencesPerArticle(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	tokenizer := analyzer.NewTokenizer()
	idx := index.NewMemoryIndex(2)
	answer := NewAnswerUseCase(directionalEmbedder{}, idx, llm, tokenizer, nil, 5, 3000)

	for i, id := range []string{"c1", "c2"} {
		e := domain.IndexEntry{
			ChunkID: id,
			Vector:  []float32{1, float32(i) * 0.01},
			Ref:     domain.ArticleRef{URL: "https://example.com/same", Source: "S", Date: "d", ChunkText: id},
		}
		if err := idx.Insert(e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := answer.Answer("query")
	if err != nil {
		t.Fatal(err)
	}
	if got.RetrievedDocs != 2 {
		t.Errorf("expected retrieved_docs=2, got %d", got.RetrievedDocs)
	}
	if len(got.References) != 1 {
		t.Errorf("expected one reference for one article, got %d", len(got.References))
	}
}

func TestAnswerLLMFailurePropagates(t *testing.T) {
	llm := &mockLLM{err: errors.New("model unavailable")}
	answer, ingest := newAnswerFixture(llm, nil)

	if err := ingest.Ingest(testArticle()); err != nil {
		t.Fatal(err)
	}

	if _, err := answer.Answer("What AI news is there?"); err == nil {
		t.Fatal("expected LLM failure to propagate")
	}
}

func TestAnswerEmbedderFailurePropagates(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	tokenizer := analyzer.NewTokenizer()
	idx := index.NewMemoryIndex(testDim)
	answer := NewAnswerUseCase(failingEmbedder{}, idx, llm, tokenizer, nil, 5, 3000)

	if _, err := answer.Answer("anything"); err == nil {
		t.Fatal("expected embedder failure to propagate")
	}
	if llm.calls != 0 {
		t.Error("LLM must not be called when embedding fails")
	}
}

func TestAnswerUsesRetrievalCache(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	queryCache := cache.NewQueryCache(10, time.Minute)

	tokenizer := analyzer.NewTokenizer()
	idx := index.NewMemoryIndex(testDim)
	counting := &countingEmbedder{inner: embedding.NewMockEmbedder(testDim)}

	ingest := NewIngestUseCase(
		chunker.NewTokenChunker(400, tokenizer),
		counting.inner,
		idx,
		queryCache,
		discardLogger(),
	)
	answer := NewAnswerUseCase(counting, idx, llm, tokenizer, queryCache, 5, 3000)

	if err := ingest.Ingest(testArticle()); err != nil {
		t.Fatal(err)
	}

	if _, err := answer.Answer("What AI news is there?"); err != nil {
		t.Fatal(err)
	}
	first := counting.calls
	if _, err := answer.Answer("What AI news is there?"); err != nil {
		t.Fatal(err)
	}

	if counting.calls != first {
		t.Errorf("expected cached retrieval to skip the embedder, calls went %d -> %d", first, counting.calls)
	}
}

func TestAnswerPromptBudgetKeepsTopRanked(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	tokenizer := analyzer.NewTokenizer()
	idx := index.NewMemoryIndex(2)

	// Tiny budget: only the best-ranked block fits.
	answer := NewAnswerUseCase(directionalEmbedder{}, idx, llm, tokenizer, nil, 5, 10)

	long := strings.Repeat("word ", 50)
	entries := []domain.IndexEntry{
		{ChunkID: "best", Vector: []float32{1, 0}, Ref: domain.ArticleRef{URL: "https://example.com/best", Source: "A", Date: "d", ChunkText: long}},
		{ChunkID: "worse", Vector: []float32{0, 1}, Ref: domain.ArticleRef{URL: "https://example.com/worse", Source: "B", Date: "d", ChunkText: long}},
	}
	for _, e := range entries {
		if err := idx.Insert(e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := answer.Answer("query")
	if err != nil {
		t.Fatal(err)
	}

	if strings.Contains(llm.lastUser, "https://example.com/worse") || strings.Contains(llm.lastUser, "Source: B") {
		t.Error("over-budget block leaked into the prompt")
	}
	if !strings.Contains(llm.lastUser, "Source: A") {
		t.Error("top-ranked block missing from the prompt")
	}
	if got.RetrievedDocs != 2 {
		t.Errorf("retrieved_docs counts retrieval, got %d", got.RetrievedDocs)
	}
	if len(got.References) != 1 {
		t.Errorf("references cover only cited context, got %d", len(got.References))
	}
}
