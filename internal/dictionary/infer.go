package dictionary

import (
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// InferenceStoplist names headwords too common to be worth ranking.
var InferenceStoplist = []string{"것", "수", "있다", "안", "하다", "되다"}

var nonWord = regexp.MustCompile(`[^\x{3131}-\x{D79D}A-Za-z0-9]`)

const (
	hangulBase  = 0xAC00
	hangulLast  = 0xD7A3
	finalsCount = 28
)

// RankedSense is one sense scored against the query context.
type RankedSense struct {
	EntryID    string  `json:"entryId"`
	SenseID    string  `json:"senseId"`
	Definition string  `json:"definition"`
	Rank       float64 `json:"rank"`
}

// Inference holds the ranked senses of one headword, best first.
type Inference struct {
	WrittenForm  string        `json:"writtenForm"`
	PartOfSpeech string        `json:"partOfSpeech,omitempty"`
	Senses       []RankedSense `json:"senses"`
}

// Infer looks up every word of query and ranks each word's senses by how
// well they fit the sentence (or the query itself when sentence is nil).
func (e *Engine) Infer(ctx context.Context, query string, sentence *string) ([]Inference, error) {
	groups, err := e.Lookup(ctx, query, sentence)
	if err != nil {
		return nil, err
	}

	text := query
	if sentence != nil {
		text = *sentence
	}

	results := []Inference{}
	for _, group := range groups {
		head := group[0]
		if slices.Contains(InferenceStoplist, head.WrittenForm) {
			continue
		}

		var senses []RankedSense
		var definitions []string
		for _, entry := range group {
			for _, s := range entry.Senses {
				senses = append(senses, RankedSense{EntryID: entry.ID, SenseID: s.ID, Definition: s.Definition})
				definitions = append(definitions, s.Definition)
			}
		}
		if len(senses) == 0 {
			continue
		}

		ranks := []float64{1.0}
		if len(senses) > 1 {
			candidates := make([]string, len(definitions))
			for i, d := range definitions {
				candidates[i] = Candidate(d)
			}
			ranks, err = e.ranker.Rank(ctx, Prompt(text, head.WrittenForm), candidates)
			if err != nil {
				return nil, fmt.Errorf("rank senses of %q: %w", head.WrittenForm, err)
			}
			if len(ranks) != len(candidates) {
				return nil, fmt.Errorf("%w: %d scores for %d candidates", ErrRankCount, len(ranks), len(candidates))
			}
		}

		for i := range senses {
			senses[i].Rank = ranks[i]
		}
		slices.SortStableFunc(senses, func(a, b RankedSense) int {
			return cmp.Compare(b.Rank, a.Rank)
		})

		results = append(results, Inference{
			WrittenForm:  head.WrittenForm,
			PartOfSpeech: head.PartOfSpeech,
			Senses:       senses,
		})
	}

	return results, nil
}

// Prompt is the question a ranker scores candidates against.
func Prompt(text, writtenForm string) string {
	return fmt.Sprintf("\"%s\"에 있는 \"%s\"의 정의는 ", text, writtenForm)
}

// Candidate turns a definition into an answer to Prompt, choosing the copula
// form that agrees with the definition's last syllable.
func Candidate(definition string) string {
	definition = strings.TrimSuffix(definition, ".")
	end := "이에요."
	if EndsInVowel(nonWord.ReplaceAllString(definition, "")) {
		end = "예요."
	}
	return "\"" + definition + "\"" + end
}

// EndsInVowel reports whether s ends in a Hangul syllable without a final
// consonant. It is false for anything that does not end in a syllable.
func EndsInVowel(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	if r < hangulBase || r > hangulLast {
		return false
	}
	return (r-hangulBase)%finalsCount == 0
}
