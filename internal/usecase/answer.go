package usecase

import (
	"fmt"
	"strings"

	"newsrag/internal/adapter/cache"
	"newsrag/internal/domain"
	"newsrag/internal/port"
)

// FallbackAnswer is returned whenever retrieval comes back empty. The
// model is never invoked without context.
const FallbackAnswer = "I have no recent news on this topic."

const systemPrompt = `You are a Real-Time News Analyst powered by live news streams.

Your role and responsibilities:
- Answer questions ONLY using the provided context from recent news articles
- If the context is empty or insufficient, respond: "I have no recent news on this topic."
- Always mention the publication date of news when available
- Cite news sources when referencing information
- Be concise, factual, and objective
- Do not speculate or add information beyond what's provided in the context
- Focus on the most recent and relevant information

Context format:
- Each article contains: title, description, source name, publication date, and category
- Information is updated continuously from a live feed

Guidelines:
- When answering, reference the source (e.g., "According to TechCrunch...")
- Mention dates to provide temporal context (e.g., "As of January 18, 2026...")
- If multiple sources discuss the same topic, synthesize the information
- Maintain transparency about what you know and don't know`

// AnswerUseCase is the query engine: it embeds a question, retrieves the
// top-K chunks from the live index, and grounds a generated answer in
// them. Queries share the index with the concurrently-running document
// store but never write to it.
type AnswerUseCase struct {
	embedder     port.Embedder
	index        port.VectorIndex
	llm          port.LLM
	tokenizer    port.Tokenizer
	cache        *cache.QueryCache
	topK         int
	promptBudget int
}

// NewAnswerUseCase creates the query engine. cache may be nil. The
// embedder must be the same model, dimension, and metric used at
// ingestion time; mixing embedding models silently corrupts similarity
// scores.
func NewAnswerUseCase(
	embedder port.Embedder,
	index port.VectorIndex,
	llm port.LLM,
	tokenizer port.Tokenizer,
	queryCache *cache.QueryCache,
	topK int,
	promptBudget int,
) *AnswerUseCase {
	if topK <= 0 {
		topK = 5
	}
	if promptBudget <= 0 {
		promptBudget = 3000
	}
	return &AnswerUseCase{
		embedder:     embedder,
		index:        index,
		llm:          llm,
		tokenizer:    tokenizer,
		cache:        queryCache,
		topK:         topK,
		promptBudget: promptBudget,
	}
}

// Answer produces a grounded answer with citations for one question.
func (u *AnswerUseCase) Answer(question string) (domain.Answer, error) {
	question = strings.TrimSpace(question)

	results, err := u.retrieve(question)
	if err != nil {
		return domain.Answer{}, err
	}

	if len(results) == 0 {
		return domain.Answer{
			Text:          FallbackAnswer,
			References:    []domain.Reference{},
			RetrievedDocs: 0,
		}, nil
	}

	included := u.fitBudget(results)

	text, err := u.llm.GenerateWithSystem(systemPrompt, u.renderPrompt(question, included))
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	return domain.Answer{
		Text:          text,
		References:    buildReferences(included),
		RetrievedDocs: len(results),
	}, nil
}

func (u *AnswerUseCase) retrieve(question string) ([]domain.ScoredEntry, error) {
	if u.cache != nil {
		if results, ok := u.cache.Get(question, u.topK); ok {
			return results, nil
		}
	}

	embeddings, err := u.embedder.Embed([]string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for question")
	}

	results, err := u.index.Search(embeddings[0], u.topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	if u.cache != nil {
		u.cache.Put(question, u.topK, results)
	}

	return results, nil
}

// fitBudget keeps the best-ranked prefix of results whose rendered
// context fits the prompt token budget. The top result is always kept.
func (u *AnswerUseCase) fitBudget(results []domain.ScoredEntry) []domain.ScoredEntry {
	used := 0
	for i, r := range results {
		tokens := u.tokenizer.CountTokens(renderBlock(r.Entry.Ref))
		if i > 0 && used+tokens > u.promptBudget {
			return results[:i]
		}
		used += tokens
	}
	return results
}

func (u *AnswerUseCase) renderPrompt(question string, results []domain.ScoredEntry) string {
	var b strings.Builder
	b.WriteString("Context from recent news articles:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, renderBlock(r.Entry.Ref))
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

func renderBlock(ref domain.ArticleRef) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", ref.Source)
	fmt.Fprintf(&b, "Date: %s\n", ref.Date)
	if ref.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", ref.Category)
	}
	fmt.Fprintf(&b, "Content: %s", ref.ChunkText)
	return b.String()
}

// buildReferences lists one citation per article in retrieval order.
// Several chunks of one article collapse into its first occurrence.
func buildReferences(results []domain.ScoredEntry) []domain.Reference {
	refs := make([]domain.Reference, 0, len(results))
	seen := make(map[string]bool)
	for _, r := range results {
		if seen[r.Entry.Ref.URL] {
			continue
		}
		seen[r.Entry.Ref.URL] = true
		refs = append(refs, domain.Reference{
			Source: r.Entry.Ref.Source,
			Date:   r.Entry.Ref.Date,
			URL:    r.Entry.Ref.URL,
		})
	}
	return refs
}
