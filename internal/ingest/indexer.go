// Package ingest builds surface maps for documents and loads corpus and
// lexicon files into the store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/l2ai/l2ai-search/internal/domain"
	"github.com/l2ai/l2ai-search/internal/morph"
	"github.com/l2ai/l2ai-search/internal/surfacemap"
)

// FormatHTML marks documents whose text is HTML markup.
const FormatHTML = "html"

// ContentWriter persists content documents.
type ContentWriter interface {
	PutContents(ctx context.Context, docs []*domain.ContentDocument) error
}

// Indexer tokenizes documents, rebuilds their surface maps and stores them.
type Indexer struct {
	tokenizer morph.Tokenizer
	store     ContentWriter
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewIndexer creates an Indexer. ratePerSecond limits tokenizer calls; zero
// or less means unlimited.
func NewIndexer(tokenizer morph.Tokenizer, store ContentWriter, ratePerSecond float64, burst int, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &Indexer{
		tokenizer: tokenizer,
		store:     store,
		limiter:   rate.NewLimiter(limit, max(burst, 1)),
		logger:    logger,
	}
}

// Prepare normalizes doc's text and rebuilds both surface maps from it.
// HTML documents are reduced to plain text first and take their title from
// the markup when none is set.
func (ix *Indexer) Prepare(ctx context.Context, doc *domain.ContentDocument) error {
	if doc.Format == FormatHTML {
		title, text, err := PlainText(doc.Text)
		if err != nil {
			return fmt.Errorf("parse html: %w", err)
		}
		if doc.Title == "" {
			doc.Title = title
		}
		doc.Text = text
	}
	doc.Text = strings.TrimSpace(doc.Text)

	if err := ix.limiter.Wait(ctx); err != nil {
		return err
	}
	tokens, err := ix.tokenizer.Tokenize(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("tokenize: %w", err)
	}

	doc.Units, doc.Modifiers = surfacemap.Build(tokens, ix.logger)
	return nil
}

// Index prepares and stores docs. Documents with an id replace the stored
// version.
func (ix *Indexer) Index(ctx context.Context, docs ...*domain.ContentDocument) error {
	for _, doc := range docs {
		if err := ix.Prepare(ctx, doc); err != nil {
			return fmt.Errorf("document %q: %w", doc.Title, err)
		}
	}
	return ix.store.PutContents(ctx, docs)
}
