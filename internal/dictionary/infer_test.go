package dictionary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/l2ai/l2ai-search/internal/domain"
)

// scriptedRanker returns fixed scores and records its inputs.
type scriptedRanker struct {
	scores     []float64
	prompt     string
	candidates []string
}

func (r *scriptedRanker) Rank(_ context.Context, prompt string, candidates []string) ([]float64, error) {
	r.prompt = prompt
	r.candidates = candidates
	return r.scores, nil
}

func TestInfer(t *testing.T) {
	store := &memLexicon{
		entries: []domain.DictionaryEntry{
			entry("1", "강아지", "강아지"),
			entry("2", "뽀송뽀송", "뽀송뽀송"),
		},
		senses: map[string][]domain.Sense{
			"1": {
				{ID: "s1", Definition: "개의 새끼."},
				{ID: "s2", Definition: "귀여운 사람"},
			},
			"2": {{ID: "s3", Definition: "보드랍고 뽀얀 모양."}},
		},
	}
	ranker := &scriptedRanker{scores: []float64{0.9, 0.1}}
	e := NewEngine(staticKeys{key: "강아지 뽀송뽀송"}, store, ranker, nil)

	got, err := e.Infer(context.Background(), "강아지는 뽀송뽀송하다.", nil)
	if err != nil {
		t.Fatalf("Infer error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 inferences, got %d", len(got))
	}

	if ranker.prompt != `"강아지는 뽀송뽀송하다."에 있는 "강아지"의 정의는 ` {
		t.Errorf("prompt = %q", ranker.prompt)
	}
	wantCandidates := []string{`"개의 새끼"예요.`, `"귀여운 사람"이에요.`}
	if !reflect.DeepEqual(ranker.candidates, wantCandidates) {
		t.Errorf("candidates = %q, want %q", ranker.candidates, wantCandidates)
	}

	if got[0].WrittenForm != "강아지" || got[0].Senses[0].SenseID != "s1" || got[0].Senses[0].Rank != 0.9 {
		t.Errorf("first inference = %+v", got[0])
	}
	if got[1].WrittenForm != "뽀송뽀송" || len(got[1].Senses) != 1 || got[1].Senses[0].Rank != 1.0 {
		t.Errorf("single sense should rank 1.0: %+v", got[1])
	}
}

func TestInfer_SortsByRank(t *testing.T) {
	store := &memLexicon{
		entries: []domain.DictionaryEntry{entry("1", "눈", "눈")},
		senses: map[string][]domain.Sense{
			"1": {{ID: "a", Definition: "보는 기관"}, {ID: "b", Definition: "하늘에서 내리는 얼음"}},
		},
	}
	e := NewEngine(staticKeys{key: "눈"}, store, &scriptedRanker{scores: []float64{0.3, 0.7}}, nil)

	got, err := e.Infer(context.Background(), "눈이 온다", nil)
	if err != nil {
		t.Fatalf("Infer error: %v", err)
	}
	if got[0].Senses[0].SenseID != "b" || got[0].Senses[1].SenseID != "a" {
		t.Errorf("senses not sorted by rank: %+v", got[0].Senses)
	}
}

func TestInfer_SkipsStoplist(t *testing.T) {
	store := &memLexicon{
		entries: []domain.DictionaryEntry{entry("1", "하다", "하다")},
		senses:  map[string][]domain.Sense{"1": {{ID: "s1", Definition: "행동하다."}}},
	}
	e := NewEngine(staticKeys{key: "하다"}, store, nil, nil)

	got, err := e.Infer(context.Background(), "하다", nil)
	if err != nil || len(got) != 0 {
		t.Errorf("Infer = %+v, %v, want nothing", got, err)
	}
}

func TestInfer_RankCountMismatch(t *testing.T) {
	store := &memLexicon{
		entries: []domain.DictionaryEntry{entry("1", "눈", "눈")},
		senses:  map[string][]domain.Sense{"1": {{ID: "a"}, {ID: "b"}}},
	}
	e := NewEngine(staticKeys{key: "눈"}, store, &scriptedRanker{scores: []float64{1}}, nil)

	if _, err := e.Infer(context.Background(), "눈", nil); !errors.Is(err, ErrRankCount) {
		t.Errorf("error = %v, want ErrRankCount", err)
	}
}

func TestEndsInVowel(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"가", true},
		{"학교", true},
		{"사람", false},
		{"각", false},
		{"abc", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := EndsInVowel(tt.in); got != tt.want {
			t.Errorf("EndsInVowel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCandidate(t *testing.T) {
	if got := Candidate("학교에 가다."); got != `"학교에 가다"예요.` {
		t.Errorf("Candidate = %q", got)
	}
	if got := Candidate("책 (book)"); got != `"책 (book)"이에요.` {
		t.Errorf("Candidate = %q", got)
	}
}

func TestUniformRanker(t *testing.T) {
	scores, err := UniformRanker{}.Rank(context.Background(), "", []string{"a", "b", "c", "d"})
	if err != nil {
		t.Fatalf("Rank error: %v", err)
	}
	if !reflect.DeepEqual(scores, []float64{0.25, 0.25, 0.25, 0.25}) {
		t.Errorf("scores = %v", scores)
	}
}

func TestHTTPRanker(t *testing.T) {
	var got rankRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(rankResponse{Scores: []float64{0.25, 0.75}})
	}))
	defer srv.Close()

	r := NewHTTPRanker(srv.URL, time.Second)
	scores, err := r.Rank(context.Background(), "p", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Rank error: %v", err)
	}
	if !reflect.DeepEqual(scores, []float64{0.25, 0.75}) {
		t.Errorf("scores = %v", scores)
	}
	if got.Prompt != "p" || !reflect.DeepEqual(got.Candidates, []string{"a", "b"}) {
		t.Errorf("request = %+v", got)
	}
}

func TestHTTPRanker_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/short" {
			_ = json.NewEncoder(w).Encode(rankResponse{Scores: []float64{1}})
			return
		}
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewHTTPRanker(srv.URL, 0).Rank(context.Background(), "p", []string{"a"}); err == nil {
		t.Error("expected error for non-200 status")
	}
	if _, err := NewHTTPRanker(srv.URL+"/short", 0).Rank(context.Background(), "p", []string{"a", "b"}); !errors.Is(err, ErrRankCount) {
		t.Errorf("error = %v, want ErrRankCount", err)
	}
}
