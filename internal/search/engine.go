// Package search finds corpus documents containing the words of a query and
// ranks them by how much of each document the query covers.
package search

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/l2ai/l2ai-search/internal/domain"
	"github.com/l2ai/l2ai-search/internal/morph"
	"github.com/l2ai/l2ai-search/internal/surfacemap"
)

// LightVerbs are stems dropped from matches unless the query is made only of
// them.
var LightVerbs = []string{"하", "되"}

// CorpusStore is the corpus collaborator.
type CorpusStore interface {
	// FindBySurfaceMembership returns every document whose map of the given
	// kind contains at least one of surfaces, in a stable order.
	FindBySurfaceMembership(ctx context.Context, kind surfacemap.Kind, surfaces []string) ([]domain.ContentDocument, error)
}

// Result is a matching document and the spans of text the query covers.
// Spans belong to the result and do not alias the document's maps.
type Result struct {
	Document domain.ContentDocument `json:"document"`
	Spans    []morph.Span           `json:"spans"`
}

// Excerpts returns the sentence around every matched span.
func (r Result) Excerpts() []surfacemap.Excerpt {
	return surfacemap.Excerpts(r.Document.Text, r.Spans)
}

// Groups returns the matched spans grouped by proximity. Ranking does not
// depend on grouping.
func (r Result) Groups() [][]morph.Span {
	return GroupSpans(r.Spans)
}

// Engine runs content searches.
type Engine struct {
	tokenizer morph.Tokenizer
	store     CorpusStore
	logger    *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(tokenizer morph.Tokenizer, store CorpusStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{tokenizer: tokenizer, store: store, logger: logger}
}

// Search returns the documents matching query, best first. No match is an
// empty result, not an error.
func (e *Engine) Search(ctx context.Context, query string) ([]Result, error) {
	tokens, err := e.tokenizer.Tokenize(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("tokenize query: %w", err)
	}
	units, modifiers := surfacemap.Build(tokens, e.logger)

	var docs []domain.ContentDocument
	switch {
	case units.Len() > 0:
		docs, err = e.store.FindBySurfaceMembership(ctx, surfacemap.Units, units.Surfaces)
	case modifiers.Len() > 0:
		docs, err = e.store.FindBySurfaceMembership(ctx, surfacemap.Modifiers, modifiers.Surfaces)
	default:
		return []Result{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find candidate documents: %w", err)
	}

	results, err := Rank(units, modifiers, docs)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Content search", "query", query, "candidates", len(docs), "results", len(results))
	return results, nil
}

// Rank matches the query maps against each candidate and orders the
// documents that match by total covered length, then by longest span.
func Rank(units, modifiers surfacemap.SurfaceMap, docs []domain.ContentDocument) ([]Result, error) {
	excluded := LightVerbs
	if units.Len() > 0 && allLightVerbs(units.Surfaces) {
		excluded = nil
	}

	results := []Result{}
	for _, doc := range docs {
		if err := doc.Units.Validate(); err != nil {
			return nil, fmt.Errorf("document %s units: %w", doc.ID, err)
		}
		if err := doc.Modifiers.Validate(); err != nil {
			return nil, fmt.Errorf("document %s modifiers: %w", doc.ID, err)
		}

		unitMatches := Intersect(units, doc.Units)
		modifierMatches := Intersect(modifiers, doc.Modifiers)
		SortBySpan(unitMatches)
		SortBySpan(modifierMatches)

		var matches []Match
		switch {
		case len(unitMatches) > 0:
			Attach(unitMatches, modifierMatches)
			matches = unitMatches
		case units.Len() == 0:
			matches = modifierMatches
		default:
			continue
		}

		var spans []morph.Span
		for _, m := range matches {
			if !slices.Contains(excluded, m.Surface) {
				spans = append(spans, m.Span)
			}
		}
		if len(spans) > 0 {
			results = append(results, Result{Document: doc, Spans: spans})
		}
	}

	slices.SortStableFunc(results, func(a, b Result) int {
		aTotal, aLongest := Coverage(a.Spans)
		bTotal, bLongest := Coverage(b.Spans)
		return cmp.Or(cmp.Compare(bTotal, aTotal), cmp.Compare(bLongest, aLongest))
	})

	return results, nil
}

func allLightVerbs(surfaces []string) bool {
	for _, s := range surfaces {
		if !slices.Contains(LightVerbs, s) {
			return false
		}
	}
	return true
}
