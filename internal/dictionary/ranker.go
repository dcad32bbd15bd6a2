package dictionary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrRankCount is returned when a ranker scores a different number of
// candidates than it was given.
var ErrRankCount = errors.New("ranker returned wrong number of scores")

// Ranker scores candidate answers to a prompt. Scores are returned in
// candidate order and sum to one.
type Ranker interface {
	Rank(ctx context.Context, prompt string, candidates []string) ([]float64, error)
}

// UniformRanker gives every candidate the same score. It is used when no
// inference service is configured.
type UniformRanker struct{}

// Rank returns 1/n for each of the n candidates.
func (UniformRanker) Rank(_ context.Context, _ string, candidates []string) ([]float64, error) {
	scores := make([]float64, len(candidates))
	for i := range scores {
		scores[i] = 1 / float64(len(candidates))
	}
	return scores, nil
}

// HTTPRanker asks a multiple-choice model served over HTTP to score
// candidates.
type HTTPRanker struct {
	url    string
	client *http.Client
}

type rankRequest struct {
	Prompt     string   `json:"prompt"`
	Candidates []string `json:"candidates"`
}

type rankResponse struct {
	Scores []float64 `json:"scores"`
}

// NewHTTPRanker creates a ranker that POSTs to url.
func NewHTTPRanker(url string, timeout time.Duration) *HTTPRanker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPRanker{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Rank sends the prompt and candidates and returns the service's scores.
func (r *HTTPRanker) Rank(ctx context.Context, prompt string, candidates []string) ([]float64, error) {
	body, err := json.Marshal(rankRequest{Prompt: prompt, Candidates: candidates})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ranker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ranker error %d: %s", resp.StatusCode, string(b))
	}

	var result rankResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode ranker response: %w", err)
	}
	if len(result.Scores) != len(candidates) {
		return nil, fmt.Errorf("%w: %d scores for %d candidates", ErrRankCount, len(result.Scores), len(candidates))
	}
	return result.Scores, nil
}
