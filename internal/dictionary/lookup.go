// Package dictionary finds lexicon entries for the words of a query and
// ranks their senses in context.
package dictionary

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"github.com/l2ai/l2ai-search/internal/domain"
)

// Stoplist holds query strings too common to justify an entry on their own.
var Stoplist = []string{"것", "수", "있다", "안", "하다", "되다", ""}

// LexiconStore is the lexicon collaborator.
type LexiconStore interface {
	// FindEntriesByText returns entries whose query strings match any of
	// the space-separated terms of predicate, in no particular order.
	FindEntriesByText(ctx context.Context, predicate string) ([]domain.DictionaryEntry, error)

	// FindSensesByEntry returns the senses of one entry.
	FindSensesByEntry(ctx context.Context, entryID string) ([]domain.Sense, error)
}

// KeyReconstructor turns a query into lexicon keys.
type KeyReconstructor interface {
	Reconstruct(ctx context.Context, query string, sentence *string, punctuation bool) (string, error)
}

// Engine answers dictionary lookups.
type Engine struct {
	keys   KeyReconstructor
	store  LexiconStore
	ranker Ranker
	logger *slog.Logger
}

// NewEngine creates an Engine. A nil ranker ranks every sense equally.
func NewEngine(keys KeyReconstructor, store LexiconStore, ranker Ranker, logger *slog.Logger) *Engine {
	if ranker == nil {
		ranker = UniformRanker{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{keys: keys, store: store, ranker: ranker, logger: logger}
}

// Lookup returns the entries for every word of query, grouped so that
// synonyms and homographs sharing a first query string sit together. Each
// group is non-empty and every entry carries its senses. No match is an empty
// result, not an error.
func (e *Engine) Lookup(ctx context.Context, query string, sentence *string) ([][]domain.DictionaryEntry, error) {
	key, err := e.keys.Reconstruct(ctx, query, sentence, true)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return [][]domain.DictionaryEntry{}, nil
	}

	entries, err := e.store.FindEntriesByText(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("find entries for %q: %w", key, err)
	}

	slices.SortStableFunc(entries, func(a, b domain.DictionaryEntry) int {
		return cmp.Or(cmp.Compare(a.WrittenForm, b.WrittenForm), cmp.Compare(a.ID, b.ID))
	})

	kept := entries[:0]
	for _, entry := range entries {
		if Matches(entry, key) {
			kept = append(kept, entry)
		}
	}

	for i := range kept {
		senses, err := e.store.FindSensesByEntry(ctx, kept[i].ID)
		if err != nil {
			return nil, fmt.Errorf("find senses for entry %s: %w", kept[i].ID, err)
		}
		kept[i].Senses = senses
	}

	groups := Group(kept, key)
	e.logger.Debug("Dictionary lookup", "query", query, "key", key, "candidates", len(entries), "groups", len(groups))
	return groups, nil
}

func isStopword(s string) bool {
	return slices.Contains(Stoplist, s)
}

// Matches reports whether entry belongs in the results for key: one of its
// query strings must occur in key and not be a stopword. A stopword is
// accepted when it is the only word of the key, ignoring punctuation keys,
// so looking up a stopword itself still finds it.
func Matches(entry domain.DictionaryEntry, key string) bool {
	for _, q := range entry.QueryStrs {
		if isStopword(q) {
			if q != "" && onlyWord(key, q) {
				return true
			}
			continue
		}
		if strings.Contains(key, q) {
			return true
		}
	}
	return false
}

// onlyWord reports whether every non-punctuation term of key is word.
func onlyWord(key, word string) bool {
	found := false
	for _, term := range strings.Fields(key) {
		if isPunctuation(term) {
			continue
		}
		if term != word {
			return false
		}
		found = true
	}
	return found
}

func isPunctuation(term string) bool {
	for _, r := range term {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// Group splits entries, already sorted by written form, into runs sharing a
// first query string. A run holding several written forms keeps only those
// that occur literally in key; runs left empty are dropped.
func Group(entries []domain.DictionaryEntry, key string) [][]domain.DictionaryEntry {
	groups := [][]domain.DictionaryEntry{}

	for start := 0; start < len(entries); {
		end := start + 1
		for end < len(entries) && entries[end].GroupKey() == entries[start].GroupKey() {
			end++
		}
		run := entries[start:end]
		start = end

		var forms []string
		for _, entry := range run {
			if !slices.Contains(forms, entry.WrittenForm) {
				forms = append(forms, entry.WrittenForm)
			}
		}

		group := slices.Clone(run)
		if len(forms) > 1 {
			group = slices.DeleteFunc(group, func(entry domain.DictionaryEntry) bool {
				return !strings.Contains(key, entry.WrittenForm)
			})
		}
		if len(group) > 0 {
			groups = append(groups, group)
		}
	}

	return groups
}
