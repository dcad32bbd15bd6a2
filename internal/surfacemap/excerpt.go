package surfacemap

import "github.com/l2ai/l2ai-search/internal/morph"

// Excerpt is the sentence surrounding a match, with the match rebased into
// the sentence.
type Excerpt struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Excerpts returns, for every span, the sentence of text that contains it.
// Sentences are delimited by '.', '!' and '?'; leading spaces and quotes and
// trailing quotes are trimmed. Span offsets are in runes.
func Excerpts(text string, spans []morph.Span) []Excerpt {
	runes := []rune(text)
	out := make([]Excerpt, 0, len(spans))

	for _, span := range spans {
		start := clamp(span.Start, 0, len(runes))
		end := clamp(span.End, start, len(runes))

		sentenceStart := 0
		for i := start - 1; i >= 0; i-- {
			if isSentenceEnd(runes[i]) {
				sentenceStart = i + 1
				break
			}
		}
		for sentenceStart < start && (runes[sentenceStart] == ' ' || runes[sentenceStart] == '"') {
			sentenceStart++
		}

		sentenceEnd := len(runes)
		for i := end; i < len(runes); i++ {
			if isSentenceEnd(runes[i]) {
				sentenceEnd = i + 1
				break
			}
		}
		for sentenceEnd < len(runes) && runes[sentenceEnd] == '"' {
			sentenceEnd++
		}

		if sentenceStart > sentenceEnd {
			sentenceStart = sentenceEnd
		}

		out = append(out, Excerpt{
			Text:  string(runes[sentenceStart:sentenceEnd]),
			Start: start - sentenceStart,
			End:   end - sentenceStart,
		})
	}

	return out
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
