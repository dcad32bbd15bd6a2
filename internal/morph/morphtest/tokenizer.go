// Package morphtest provides an in-memory tokenizer for tests.
package morphtest

import (
	"context"
	"fmt"

	"github.com/l2ai/l2ai-search/internal/morph"
)

// M builds an unaligned token with the given surface and tag.
func M(surface, tag string) morph.Token {
	return morph.Token{Surface: surface, Tag: tag}
}

// Inflect builds an inflected token whose expression starts with stem.
func Inflect(surface, tag, expression string) morph.Token {
	return morph.Token{
		Surface: surface,
		Tag:     tag,
		Feature: morph.Feature{Type: morph.FeatureInflect, Expression: expression},
	}
}

// Compound builds a compound token.
func Compound(surface, tag, expression string) morph.Token {
	return morph.Token{
		Surface: surface,
		Tag:     tag,
		Feature: morph.Feature{Type: morph.FeatureCompound, Expression: expression},
	}
}

// Tokenizer returns canned token sequences keyed by the exact input text.
type Tokenizer struct {
	analyses map[string][]morph.Token
	calls    []string
}

// NewTokenizer creates an empty tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{analyses: make(map[string][]morph.Token)}
}

// Add registers the analysis of text. Spans are assigned by locating each
// surface in text, the same way the mecab adapter does.
func (t *Tokenizer) Add(text string, tokens ...morph.Token) *Tokenizer {
	aligned, _ := morph.AssignSpans(text, tokens)
	t.analyses[text] = aligned
	return t
}

// Tokenize returns the registered analysis or an error for unknown text.
func (t *Tokenizer) Tokenize(_ context.Context, text string) ([]morph.Token, error) {
	t.calls = append(t.calls, text)
	tokens, ok := t.analyses[text]
	if !ok {
		return nil, fmt.Errorf("no analysis registered for %q", text)
	}
	out := make([]morph.Token, len(tokens))
	copy(out, tokens)
	return out, nil
}

// Calls returns every text passed to Tokenize.
func (t *Tokenizer) Calls() []string {
	return t.calls
}
