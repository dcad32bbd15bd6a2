// Package morph classifies mecab-ko morphemes and derives their canonical
// surfaces.
package morph

import "context"

// Feature type values reported by mecab-ko-dic for multi-morpheme tokens.
const (
	FeatureCompound    = "Compound"
	FeatureInflect     = "Inflect"
	FeaturePreanalysis = "Preanalysis"
)

// Span is a half-open [Start, End) range of rune offsets into a source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of runes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Feature carries the decomposition mecab attaches to compound and
// inflected tokens.
type Feature struct {
	// Type is FeatureCompound, FeatureInflect, FeaturePreanalysis or empty.
	Type string `json:"type,omitempty"`

	// Expression is the "surface/TAG/*+surface/TAG/*" decomposition.
	Expression string `json:"expression,omitempty"`
}

// Token is a single morpheme produced by a tokenizer.
type Token struct {
	Span    Span    `json:"span"`
	Surface string  `json:"surface"`
	Tag     string  `json:"tag"`
	Feature Feature `json:"feature"`
}

// Tokenizer turns raw text into an ordered sequence of tokens. Spans must be
// rune offsets into the text that was passed in.
type Tokenizer interface {
	Tokenize(ctx context.Context, text string) ([]Token, error)
}
