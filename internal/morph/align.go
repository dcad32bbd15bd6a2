package morph

import (
	"strings"
	"unicode/utf8"
)

// AssignSpans sets the rune span of every token by locating its surface in
// text, scanning forward from the end of the previous token. Tokens whose
// surface cannot be found keep a zero-length span at the cursor and are
// reported through the returned count of unaligned tokens.
func AssignSpans(text string, tokens []Token) ([]Token, int) {
	out := make([]Token, len(tokens))
	byteCursor := 0
	runeCursor := 0
	unaligned := 0

	for i, t := range tokens {
		out[i] = t
		if t.Surface == "" {
			out[i].Span = Span{Start: runeCursor, End: runeCursor}
			unaligned++
			continue
		}

		offset := strings.Index(text[byteCursor:], t.Surface)
		if offset < 0 {
			out[i].Span = Span{Start: runeCursor, End: runeCursor}
			unaligned++
			continue
		}

		start := runeCursor + utf8.RuneCountInString(text[byteCursor:byteCursor+offset])
		end := start + utf8.RuneCountInString(t.Surface)
		out[i].Span = Span{Start: start, End: end}

		byteCursor += offset + len(t.Surface)
		runeCursor = end
	}

	return out, unaligned
}
