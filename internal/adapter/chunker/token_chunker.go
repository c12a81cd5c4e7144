package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"newsrag/internal/domain"
	"newsrag/internal/port"
)

var sentenceSplitter = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?]+)`)

// TokenChunker splits an article's text into passages of at most
// maxTokens tokens. Splitting is deterministic: the same text always
// yields the same chunk boundaries.
type TokenChunker struct {
	maxTokens int
	tokenizer port.Tokenizer
}

func NewTokenChunker(maxTokens int, tokenizer port.Tokenizer) *TokenChunker {
	if maxTokens <= 0 {
		maxTokens = 400
	}
	return &TokenChunker{
		maxTokens: maxTokens,
		tokenizer: tokenizer,
	}
}

func (c *TokenChunker) Chunk(article domain.Article) ([]domain.Chunk, error) {
	text := strings.TrimSpace(article.Text)
	if text == "" {
		return nil, nil
	}

	sentences := splitSentences(text)

	var chunks []domain.Chunk
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, c.newChunk(article.URL, len(chunks), current.String(), currentTokens))
		current.Reset()
		currentTokens = 0
	}

	for _, sentence := range sentences {
		tokens := c.tokenizer.CountTokens(sentence)

		// A single sentence over the budget is split on word boundaries.
		if tokens > c.maxTokens {
			flush()
			for _, part := range c.splitLongSentence(sentence) {
				chunks = append(chunks, c.newChunk(article.URL, len(chunks), part, c.tokenizer.CountTokens(part)))
			}
			continue
		}

		if currentTokens > 0 && currentTokens+tokens > c.maxTokens {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
		currentTokens += tokens
	}
	flush()

	return chunks, nil
}

// splitLongSentence breaks one oversized sentence into word runs that
// each fit the token budget.
func (c *TokenChunker) splitLongSentence(sentence string) []string {
	words := strings.Fields(sentence)

	var parts []string
	var current strings.Builder
	currentTokens := 0

	for _, word := range words {
		tokens := c.tokenizer.CountTokens(word)
		if currentTokens > 0 && currentTokens+tokens > c.maxTokens {
			parts = append(parts, current.String())
			current.Reset()
			currentTokens = 0
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
		currentTokens += tokens
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

func (c *TokenChunker) newChunk(articleURL string, index int, text string, tokens int) domain.Chunk {
	return domain.Chunk{
		ID:         generateChunkID(articleURL, index),
		ArticleURL: articleURL,
		Text:       text,
		TokenCount: tokens,
	}
}

func splitSentences(text string) []string {
	spans := sentenceSplitter.FindAllStringIndex(text, -1)
	if spans == nil {
		return []string{text}
	}

	sentences := make([]string, 0, len(spans)+1)
	end := 0
	for _, span := range spans {
		if s := strings.TrimSpace(text[span[0]:span[1]]); s != "" {
			sentences = append(sentences, s)
		}
		end = span[1]
	}

	// Keep any trailing fragment without closing punctuation.
	if tail := strings.TrimSpace(text[end:]); tail != "" {
		sentences = append(sentences, tail)
	}

	return sentences
}

func generateChunkID(articleURL string, index int) string {
	data := fmt.Sprintf("%s#%d", articleURL, index)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
