// Package querykey rebuilds dictionary headword forms from a tokenized query.
//
// Lexicon headwords are citation forms: verbs and adjectives end in 다,
// prefixed and compound words are listed fused. The tokenizer splits text
// into minimal morphemes, so the reconstructor replays those fusion rules
// to recover the keys a lexicographer would look up.
package querykey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/l2ai/l2ai-search/internal/morph"
)

// VerbEnding is the citation ending appended to verb and adjective stems.
const VerbEnding = "다"

// ErrQueryNotInContext is returned when the query is not a substring of the
// supplied context.
var ErrQueryNotInContext = errors.New("query not found in context")

// Reconstructor turns query phrases into space-separated lexicon keys.
type Reconstructor struct {
	tokenizer morph.Tokenizer
	logger    *slog.Logger
}

// New creates a Reconstructor backed by tokenizer.
func New(tokenizer morph.Tokenizer, logger *slog.Logger) *Reconstructor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconstructor{tokenizer: tokenizer, logger: logger}
}

// Window returns the rune range [start, end) that query occupies inside
// sentence, or the whole query when sentence is nil.
func Window(query string, sentence *string) (start, end int, err error) {
	if sentence == nil {
		return 0, utf8.RuneCountInString(query), nil
	}
	i := strings.Index(*sentence, query)
	if i < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrQueryNotInContext, query)
	}
	start = utf8.RuneCountInString((*sentence)[:i])
	return start, start + utf8.RuneCountInString(query), nil
}

// Reconstruct returns the lexicon keys for query joined by single spaces.
// When sentence is given it is tokenized instead of the query so that the
// analysis reflects the surrounding text; only tokens inside the query's
// window produce keys. punctuation keeps sentence-final punctuation as a key.
func (r *Reconstructor) Reconstruct(ctx context.Context, query string, sentence *string, punctuation bool) (string, error) {
	start, end, err := Window(query, sentence)
	if err != nil {
		return "", err
	}

	text := query
	if sentence != nil {
		text = *sentence
	}

	tokens, err := r.tokenizer.Tokenize(ctx, text)
	if err != nil {
		return "", fmt.Errorf("tokenize query: %w", err)
	}

	return strings.Join(r.Keys(tokens, start, end, punctuation), " "), nil
}

// Keys reconstructs the lexicon keys of the tokens that fall inside
// [start, end).
func (r *Reconstructor) Keys(tokens []morph.Token, start, end int, punctuation bool) []string {
	var keys []string
	prefix := ""

	for _, t := range tokens {
		if t.Span.Start < start {
			continue
		}
		if t.Span.End > end {
			break
		}

		c, err := morph.Classify(t.Tag)
		if err != nil {
			r.logger.Warn("Skipping token", "surface", t.Surface, "tag", t.Tag, "error", err)
			continue
		}

		keepPunctuation := punctuation && c == morph.SentenceFinalPunctuation
		if !keepPunctuation && morph.DictionaryExcluded.Has(c) {
			continue
		}

		surface := morph.CanonicalSurface(t)
		if prefix != "" {
			first, _ := utf8.DecodeRuneInString(prefix)
			surface = string(first) + surface
		}

		switch c {
		case morph.Prefix, morph.Root:
			prefix = surface
			continue

		case morph.VerbSuffix, morph.AdjectiveSuffix:
			switch {
			case prefix != "":
				surface += VerbEnding
			case len(keys) > 0:
				keys[len(keys)-1] += surface + VerbEnding
				continue
			default:
				surface += VerbEnding
			}

		case morph.NounSuffix:
			if prefix == "" && len(keys) > 0 {
				keys[len(keys)-1] += surface
				continue
			}

		case morph.Verb, morph.Adjective, morph.AuxiliaryVerb:
			surface += VerbEnding
		}

		keys = append(keys, surface)
		prefix = ""
	}

	if len(keys) == 0 && prefix != "" {
		keys = []string{prefix}
	}

	return keys
}
