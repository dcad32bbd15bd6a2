// Package surfacemap builds the sorted surface-to-span indexes stored for
// every document and used to match queries against it.
package surfacemap

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/l2ai/l2ai-search/internal/morph"
)

// ErrMalformed indicates that a surface map's parallel lists are out of sync.
var ErrMalformed = errors.New("malformed surface map")

// Kind selects one of the two maps a document owns.
type Kind string

const (
	// Units index independent lexical items.
	Units Kind = "units"
	// Modifiers index bound grammatical items.
	Modifiers Kind = "modifiers"
)

// SurfaceMap pairs strictly ascending, unique surfaces with the spans where
// each occurs.
type SurfaceMap struct {
	Surfaces []string       `json:"surfaces"`
	Spans    [][]morph.Span `json:"ix"`
}

// Len returns the number of distinct surfaces.
func (m SurfaceMap) Len() int {
	return len(m.Surfaces)
}

// Find returns the index of surface, or the insertion position and false.
func (m SurfaceMap) Find(surface string) (int, bool) {
	i := sort.SearchStrings(m.Surfaces, surface)
	return i, i < len(m.Surfaces) && m.Surfaces[i] == surface
}

// Validate reports ErrMalformed unless surfaces are sorted, unique and each
// has at least one span.
func (m SurfaceMap) Validate() error {
	if len(m.Surfaces) != len(m.Spans) {
		return fmt.Errorf("%w: %d surfaces, %d span lists", ErrMalformed, len(m.Surfaces), len(m.Spans))
	}
	for i, s := range m.Surfaces {
		if i > 0 && m.Surfaces[i-1] >= s {
			return fmt.Errorf("%w: surfaces not strictly ascending at %d", ErrMalformed, i)
		}
		if len(m.Spans[i]) == 0 {
			return fmt.Errorf("%w: no spans for %q", ErrMalformed, s)
		}
	}
	return nil
}

func (m *SurfaceMap) add(surface string, span morph.Span) {
	i, ok := m.Find(surface)
	if ok {
		m.Spans[i] = append(m.Spans[i], span)
		return
	}
	m.Surfaces = slices.Insert(m.Surfaces, i, surface)
	m.Spans = slices.Insert(m.Spans, i, []morph.Span{span})
}

type keyed struct {
	surface  string
	category morph.Category
	span     morph.Span
}

// Build indexes tokens into a units map and a modifiers map. Tokens with an
// empty span or an unclassifiable tag are skipped with a warning;
// general-excluded categories are never indexed.
func Build(tokens []morph.Token, logger *slog.Logger) (units, modifiers SurfaceMap) {
	if logger == nil {
		logger = slog.Default()
	}

	entries := make([]keyed, 0, len(tokens))
	for _, t := range tokens {
		if t.Span.Len() <= 0 {
			logger.Warn("Skipping token without a span", "surface", t.Surface, "span", t.Span)
			continue
		}
		c, err := morph.Classify(t.Tag)
		if err != nil {
			logger.Warn("Skipping token", "surface", t.Surface, "tag", t.Tag, "error", err)
			continue
		}
		entries = append(entries, keyed{surface: morph.CanonicalSurface(t), category: c, span: t.Span})
	}

	slices.SortStableFunc(entries, func(a, b keyed) int {
		if c := strings.Compare(a.surface, b.surface); c != 0 {
			return c
		}
		return a.span.Start - b.span.Start
	})

	units = SurfaceMap{Surfaces: []string{}, Spans: [][]morph.Span{}}
	modifiers = SurfaceMap{Surfaces: []string{}, Spans: [][]morph.Span{}}

	for _, e := range entries {
		if morph.GeneralExcluded.Has(e.category) {
			continue
		}
		if morph.Dependent.Has(e.category) {
			modifiers.add(e.surface, e.span)
		} else {
			units.add(e.surface, e.span)
		}
	}

	return units, modifiers
}
