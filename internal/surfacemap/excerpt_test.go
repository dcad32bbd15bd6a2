package surfacemap

import (
	"reflect"
	"testing"

	"github.com/l2ai/l2ai-search/internal/morph"
)

func TestExcerpts(t *testing.T) {
	s := "Hello world! This is an example sentence. Another one?"

	got := Excerpts(s, []morph.Span{{Start: 0, End: 5}, {Start: 13, End: 17}, {Start: 42, End: 49}})
	want := []Excerpt{
		{Text: "Hello world!", Start: 0, End: 5},
		{Text: "This is an example sentence.", Start: 0, End: 4},
		{Text: "Another one?", Start: 0, End: 7},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Excerpts() = %+v, want %+v", got, want)
	}
}

func TestExcerpts_Quotes(t *testing.T) {
	s := `그가 말했다. "학교에 간다." 그리고 갔다`

	got := Excerpts(s, []morph.Span{{Start: 9, End: 11}})
	want := []Excerpt{{Text: `학교에 간다."`, Start: 0, End: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Excerpts() = %+v, want %+v", got, want)
	}
}

func TestExcerpts_NoPunctuation(t *testing.T) {
	got := Excerpts("나는 학교에 간다", []morph.Span{{Start: 3, End: 5}})
	want := []Excerpt{{Text: "나는 학교에 간다", Start: 3, End: 5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Excerpts() = %+v, want %+v", got, want)
	}
}

func TestExcerpts_OutOfRange(t *testing.T) {
	got := Excerpts("짧다", []morph.Span{{Start: 5, End: 9}})
	if len(got) != 1 || got[0].Start != got[0].End {
		t.Errorf("Excerpts() = %+v, want one empty excerpt", got)
	}
}

func TestExcerpts_SpanStartsOnQuote(t *testing.T) {
	got := Excerpts(`끝. "안녕"`, []morph.Span{{Start: 3, End: 7}})
	want := []Excerpt{{Text: `"안녕"`, Start: 0, End: 4}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Excerpts() = %+v, want %+v", got, want)
	}
}
