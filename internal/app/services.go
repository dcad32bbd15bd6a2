package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/l2ai/l2ai-search/internal/config"
	"github.com/l2ai/l2ai-search/internal/dictionary"
	"github.com/l2ai/l2ai-search/internal/ingest"
	"github.com/l2ai/l2ai-search/internal/mecab"
	"github.com/l2ai/l2ai-search/internal/morph"
	"github.com/l2ai/l2ai-search/internal/querykey"
	"github.com/l2ai/l2ai-search/internal/search"
	"github.com/l2ai/l2ai-search/internal/store"
)

// Services holds the components wired over one data directory. The
// directory stays locked until Close.
type Services struct {
	Settings   *config.Settings
	Store      *store.Store
	Tokenizer  morph.Tokenizer
	Keys       *querykey.Reconstructor
	Dictionary *dictionary.Engine
	Search     *search.Engine
	Indexer    *ingest.Indexer

	lock   *store.DirLock
	logger *slog.Logger
}

// OpenServices locks the data directory and wires every component over a
// mecab tokenizer.
func OpenServices(ctx context.Context, settings *config.Settings, logger *slog.Logger) (*Services, error) {
	tokenizer := mecab.NewTokenizer(settings.Mecab.Binary, settings.Mecab.DicDir, logger)
	return OpenServicesWithTokenizer(ctx, settings, tokenizer, logger)
}

// OpenServicesWithTokenizer is OpenServices with a caller supplied tokenizer.
func OpenServicesWithTokenizer(ctx context.Context, settings *config.Settings, tokenizer morph.Tokenizer, logger *slog.Logger) (*Services, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(settings.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	lock := store.NewDirLock(settings.DataDir)
	if err := lock.Lock(ctx, settings.Ingest.LockTimeout); err != nil {
		if errors.Is(err, store.ErrLockTimeout) {
			return nil, fmt.Errorf("data directory %s is in use by another process: %w", settings.DataDir, err)
		}
		return nil, fmt.Errorf("failed to lock data directory: %w", err)
	}

	st, err := store.Open(settings.DataDir, logger)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	var ranker dictionary.Ranker = dictionary.UniformRanker{}
	if settings.Ranker.URL != "" {
		ranker = dictionary.NewHTTPRanker(settings.Ranker.URL, settings.Ranker.Timeout)
	}

	keys := querykey.New(tokenizer, logger)

	return &Services{
		Settings:   settings,
		Store:      st,
		Tokenizer:  tokenizer,
		Keys:       keys,
		Dictionary: dictionary.NewEngine(keys, st, ranker, logger),
		Search:     search.NewEngine(tokenizer, st, logger),
		Indexer:    ingest.NewIndexer(tokenizer, st, settings.Ingest.RateLimit, settings.Ingest.Burst, logger),
		lock:       lock,
		logger:     logger,
	}, nil
}

// Loader returns a bulk loader over the services' store.
func (s *Services) Loader(force bool) *ingest.Loader {
	return ingest.NewLoader(s.Indexer, s.Store, s.Settings.DataDir, force, s.logger)
}

// Close closes the store and releases the data directory.
func (s *Services) Close() error {
	return errors.Join(s.Store.Close(), s.lock.Unlock())
}
