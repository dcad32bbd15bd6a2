package search

import (
	"cmp"
	"slices"

	"github.com/l2ai/l2ai-search/internal/morph"
	"github.com/l2ai/l2ai-search/internal/surfacemap"
)

// Match is one occurrence in a document of a queried surface.
type Match struct {
	Surface string
	Span    morph.Span
}

// Intersect merge-joins the query's surfaces against a document map and
// returns one match per document occurrence of every shared surface. Both
// maps must be sorted.
func Intersect(query, doc surfacemap.SurfaceMap) []Match {
	var matches []Match
	i := 0
	for _, surface := range query.Surfaces {
		for i < len(doc.Surfaces) && doc.Surfaces[i] < surface {
			i++
		}
		if i == len(doc.Surfaces) {
			break
		}
		if doc.Surfaces[i] == surface {
			for _, span := range doc.Spans[i] {
				matches = append(matches, Match{Surface: surface, Span: span})
			}
		}
	}
	return matches
}

// SortBySpan orders matches by span start then end, keeping the relative
// order of equal spans.
func SortBySpan(matches []Match) {
	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Or(cmp.Compare(a.Span.Start, b.Span.Start), cmp.Compare(a.Span.End, b.Span.End))
	})
}

// Attach extends every unit span that ends where a modifier starts so that
// it also covers the modifier. Extensions chain, so a unit followed by two
// adjacent modifiers absorbs both. Both slices must be sorted by span.
func Attach(units, modifiers []Match) {
	i := 0
	for _, mod := range modifiers {
		for i < len(units) && units[i].Span.End < mod.Span.Start {
			i++
		}
		if i < len(units) && units[i].Span.End == mod.Span.Start {
			units[i].Span.End = mod.Span.End
		}
	}
}

// Coverage returns the total and the longest span length.
func Coverage(spans []morph.Span) (total, longest int) {
	for _, s := range spans {
		total += s.Len()
		longest = max(longest, s.Len())
	}
	return total, longest
}

// Span gaps, in runes, used when grouping result spans.
const (
	// MergeGap joins spans separated by less than this many runes into one.
	MergeGap = 2
	// NearGap places spans separated by less than this many runes in the
	// same group.
	NearGap = 20
)

// GroupSpans merges directly adjacent spans and gathers nearby spans into
// groups, ordered by position. spans is not modified.
func GroupSpans(spans []morph.Span) [][]morph.Span {
	sorted := slices.Clone(spans)
	slices.SortFunc(sorted, func(a, b morph.Span) int {
		return cmp.Or(cmp.Compare(a.Start, b.Start), cmp.Compare(a.End, b.End))
	})

	var groups [][]morph.Span
	for _, sp := range sorted {
		if len(groups) == 0 {
			groups = append(groups, []morph.Span{sp})
			continue
		}
		group := groups[len(groups)-1]
		last := &group[len(group)-1]
		switch gap := sp.Start - last.End; {
		case gap < MergeGap:
			last.End = max(last.End, sp.End)
		case gap < NearGap:
			groups[len(groups)-1] = append(group, sp)
		default:
			groups = append(groups, []morph.Span{sp})
		}
	}
	return groups
}
