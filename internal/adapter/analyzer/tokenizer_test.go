package analyzer

import "testing"

func TestTokenizeBasic(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("OpenAI Releases New Model, Stocks React")
	expected := []string{"openai", "releases", "new", "model", "stocks", "react"}

	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, want := range expected {
		if tokens[i] != want {
			t.Errorf("token %d: expected %q, got %q", i, want, tokens[i])
		}
	}
}

func TestTokenizeEmpty(t *testing.T) {
	tok := NewTokenizer()

	if tokens := tok.Tokenize(""); len(tokens) != 0 {
		t.Errorf("expected no tokens for empty text, got %v", tokens)
	}
	if tokens := tok.Tokenize("  ...  "); len(tokens) != 0 {
		t.Errorf("expected no tokens for punctuation-only text, got %v", tokens)
	}
}

func TestCountTokens(t *testing.T) {
	tok := NewTokenizer()

	if n := tok.CountTokens(""); n != 0 {
		t.Errorf("expected 0 tokens for empty text, got %d", n)
	}

	n := tok.CountTokens("one two three four")
	if n < 4 {
		t.Errorf("expected at least 4 tokens, got %d", n)
	}
	if n > 8 {
		t.Errorf("estimate too high for 4 words: %d", n)
	}
}

func TestCountTokensDeterministic(t *testing.T) {
	tok := NewTokenizer()
	text := "Markets rallied after the central bank held rates steady."

	a := tok.CountTokens(text)
	b := tok.CountTokens(text)
	if a != b {
		t.Errorf("token count not deterministic: %d vs %d", a, b)
	}
}
