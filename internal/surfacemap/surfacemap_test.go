package surfacemap

import (
	"errors"
	"reflect"
	"testing"

	"github.com/l2ai/l2ai-search/internal/morph"
	"github.com/l2ai/l2ai-search/internal/morph/morphtest"
)

func align(t *testing.T, text string, tokens ...morph.Token) []morph.Token {
	t.Helper()
	out, unaligned := morph.AssignSpans(text, tokens)
	if unaligned != 0 {
		t.Fatalf("%d tokens not found in %q", unaligned, text)
	}
	return out
}

func TestBuild(t *testing.T) {
	// 학교에 가서 학교를 봤다.
	tokens := align(t, "학교에 가서 학교를 봤다.",
		morphtest.M("학교", "NNG"),
		morphtest.M("에", "JKB"),
		morphtest.Inflect("가서", "VV+EC", "가/VV/*+아서/EC/*"),
		morphtest.M("학교", "NNG"),
		morphtest.M("를", "JKO"),
		morphtest.Inflect("봤", "VV+EP", "보/VV/*+았/EP/*"),
		morphtest.M("다", "EF"),
		morphtest.M(".", "SF"),
	)

	units, modifiers := Build(tokens, nil)

	wantUnits := SurfaceMap{
		Surfaces: []string{"가", "보", "학교"},
		Spans:    [][]morph.Span{{{Start: 4, End: 6}}, {{Start: 11, End: 12}}, {{Start: 0, End: 2}, {Start: 7, End: 9}}},
	}
	if !reflect.DeepEqual(units, wantUnits) {
		t.Errorf("units = %+v, want %+v", units, wantUnits)
	}

	wantModifiers := SurfaceMap{
		Surfaces: []string{"다", "를", "에"},
		Spans:    [][]morph.Span{{{Start: 12, End: 13}}, {{Start: 9, End: 10}}, {{Start: 2, End: 3}}},
	}
	if !reflect.DeepEqual(modifiers, wantModifiers) {
		t.Errorf("modifiers = %+v, want %+v", modifiers, wantModifiers)
	}
}

func TestBuild_Sortedness(t *testing.T) {
	tokens := align(t, "다 나 가 다 가 라",
		morphtest.M("다", "NNG"),
		morphtest.M("나", "NP"),
		morphtest.M("가", "NNG"),
		morphtest.M("다", "NNG"),
		morphtest.M("가", "NNG"),
		morphtest.M("라", "NNG"),
	)

	units, _ := Build(tokens, nil)
	if err := units.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	for i, s := range units.Surfaces {
		for _, span := range units.Spans[i] {
			found := false
			for _, tok := range tokens {
				if tok.Span == span && morph.CanonicalSurface(tok) == s {
					found = true
				}
			}
			if !found {
				t.Errorf("span %v recorded under %q has no contributing token", span, s)
			}
		}
	}
}

func TestBuild_ExcludesGeneralCategories(t *testing.T) {
	tokens := align(t, "책 3권, 좋다!",
		morphtest.M("책", "NNG"),
		morphtest.M("3", "SN"),
		morphtest.M("권", "NNBC"),
		morphtest.M(",", "SC"),
		morphtest.M("좋", "VA"),
		morphtest.M("다", "EF"),
		morphtest.M("!", "SF"),
	)

	units, modifiers := Build(tokens, nil)
	for _, m := range []SurfaceMap{units, modifiers} {
		for _, s := range m.Surfaces {
			if s == "3" || s == "," || s == "!" {
				t.Errorf("excluded surface %q was indexed", s)
			}
		}
	}
	if _, ok := units.Find("권"); !ok {
		t.Error("counting noun should be indexed as a unit")
	}
}

func TestBuild_SkipsUnknownTags(t *testing.T) {
	tokens := align(t, "가 나", morphtest.M("가", "ZZZ"), morphtest.M("나", "NNG"))

	units, modifiers := Build(tokens, nil)
	if !reflect.DeepEqual(units.Surfaces, []string{"나"}) {
		t.Errorf("units = %v, want [나]", units.Surfaces)
	}
	if modifiers.Len() != 0 {
		t.Errorf("modifiers = %v, want empty", modifiers.Surfaces)
	}
}

func TestBuild_SkipsEmptySpans(t *testing.T) {
	tokens, unaligned := morph.AssignSpans("가 나", []morph.Token{
		morphtest.M("가", "NNG"),
		morphtest.M("다", "NNG"),
		morphtest.M("나", "NNG"),
	})
	if unaligned != 1 {
		t.Fatalf("unaligned = %d, want 1", unaligned)
	}

	units, _ := Build(tokens, nil)
	if !reflect.DeepEqual(units.Surfaces, []string{"가", "나"}) {
		t.Errorf("units = %v, want [가 나]", units.Surfaces)
	}
	for i, spans := range units.Spans {
		for _, sp := range spans {
			if sp.Len() <= 0 {
				t.Errorf("%q has empty span %v", units.Surfaces[i], sp)
			}
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a := align(t, "나 가 나", morphtest.M("나", "NNG"), morphtest.M("가", "NNG"), morphtest.M("나", "NNG"))
	b := []morph.Token{a[2], a[1], a[0]}

	ua, _ := Build(a, nil)
	ub, _ := Build(b, nil)
	if !reflect.DeepEqual(ua, ub) {
		t.Errorf("token order changed the map: %+v vs %+v", ua, ub)
	}
}

func TestBuild_Empty(t *testing.T) {
	units, modifiers := Build(nil, nil)
	if units.Len() != 0 || modifiers.Len() != 0 {
		t.Error("expected empty maps")
	}
	if units.Surfaces == nil {
		t.Error("expected non-nil surfaces so stored maps serialize as []")
	}
}

func TestFind(t *testing.T) {
	m := SurfaceMap{Surfaces: []string{"가", "나", "라"}, Spans: [][]morph.Span{{{Start: 0, End: 1}}, {{Start: 1, End: 2}}, {{Start: 2, End: 3}}}}

	if i, ok := m.Find("나"); !ok || i != 1 {
		t.Errorf("Find(나) = %d, %v", i, ok)
	}
	if i, ok := m.Find("다"); ok || i != 2 {
		t.Errorf("Find(다) = %d, %v, want insertion point 2", i, ok)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		m    SurfaceMap
		ok   bool
	}{
		{"empty", SurfaceMap{}, true},
		{"valid", SurfaceMap{Surfaces: []string{"a", "b"}, Spans: [][]morph.Span{{{Start: 0, End: 1}}, {{Start: 1, End: 2}}}}, true},
		{"length mismatch", SurfaceMap{Surfaces: []string{"a"}, Spans: nil}, false},
		{"unsorted", SurfaceMap{Surfaces: []string{"b", "a"}, Spans: [][]morph.Span{{{Start: 0, End: 1}}, {{Start: 1, End: 2}}}}, false},
		{"duplicate", SurfaceMap{Surfaces: []string{"a", "a"}, Spans: [][]morph.Span{{{Start: 0, End: 1}}, {{Start: 1, End: 2}}}}, false},
		{"empty spans", SurfaceMap{Surfaces: []string{"a"}, Spans: [][]morph.Span{{}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrMalformed) {
				t.Errorf("error = %v, want ErrMalformed", err)
			}
		})
	}
}
