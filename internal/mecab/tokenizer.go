// Package mecab runs the mecab-ko tagger as an external process and parses
// its output into morph tokens.
package mecab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/l2ai/l2ai-search/internal/morph"
)

// DefaultBinary is the tagger executable looked up on PATH.
const DefaultBinary = "mecab"

// ErrMalformedOutput is returned when a tagger output line cannot be parsed.
var ErrMalformedOutput = errors.New("malformed mecab output")

const (
	eosMarker    = "EOS"
	featureCount = 8
	emptyField   = "*"
)

// Tokenizer implements morph.Tokenizer on top of the mecab command.
type Tokenizer struct {
	executor CommandExecutor
	binary   string
	dicdir   string
	logger   *slog.Logger
}

// NewTokenizer creates a Tokenizer that runs binary with the default
// executor. An empty dicdir uses the tagger's configured dictionary.
func NewTokenizer(binary, dicdir string, logger *slog.Logger) *Tokenizer {
	return NewTokenizerWithExecutor(&DefaultExecutor{}, binary, dicdir, logger)
}

// NewTokenizerWithExecutor creates a Tokenizer with a custom executor (for testing).
func NewTokenizerWithExecutor(executor CommandExecutor, binary, dicdir string, logger *slog.Logger) *Tokenizer {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tokenizer{
		executor: executor,
		binary:   binary,
		dicdir:   dicdir,
		logger:   logger,
	}
}

// Tokenize runs the tagger over text and returns its morphemes with rune
// spans into text. Morphemes whose surface does not occur in text are
// dropped.
func (t *Tokenizer) Tokenize(ctx context.Context, text string) ([]morph.Token, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var args []string
	if t.dicdir != "" {
		args = append(args, "-d", t.dicdir)
	}

	output, err := t.executor.Run(ctx, []byte(text), t.binary, args...)
	if err != nil {
		return nil, fmt.Errorf("mecab failed: %w", err)
	}

	tokens, err := Parse(string(output))
	if err != nil {
		return nil, err
	}

	tokens, unaligned := morph.AssignSpans(text, tokens)
	if unaligned > 0 {
		t.logger.Warn("Dropping morphemes that could not be located in the text", "count", unaligned)
		tokens = slices.DeleteFunc(tokens, func(tok morph.Token) bool {
			return tok.Span.Len() == 0
		})
	}

	return tokens, nil
}

// Parse converts mecab-ko output into tokens. Lines have the form
//
//	surface<TAB>POS,semantic,jongseong,reading,type,start,end,expression
//
// and every sentence is terminated by an EOS line. Returned tokens have no
// spans yet.
func Parse(output string) ([]morph.Token, error) {
	var tokens []morph.Token

	for n, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || line == eosMarker {
			continue
		}

		surface, features, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("%w: line %d has no feature column: %q", ErrMalformedOutput, n+1, line)
		}

		fields := strings.SplitN(features, ",", featureCount)
		if len(fields) < featureCount {
			return nil, fmt.Errorf("%w: line %d has %d features, want %d", ErrMalformedOutput, n+1, len(fields), featureCount)
		}

		tokens = append(tokens, morph.Token{
			Surface: surface,
			Tag:     fields[0],
			Feature: morph.Feature{
				Type:       field(fields[4]),
				Expression: field(fields[7]),
			},
		})
	}

	return tokens, nil
}

func field(s string) string {
	if s == emptyField {
		return ""
	}
	return s
}
