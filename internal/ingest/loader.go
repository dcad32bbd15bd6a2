package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/l2ai/l2ai-search/internal/domain"
	"github.com/l2ai/l2ai-search/internal/store"
)

// Source kinds recorded in the manifest.
const (
	KindContent    = "content"
	KindDictionary = "dictionary"
)

// BatchSize is the number of records written per store call.
const BatchSize = 100

// LexiconWriter persists dictionary entries.
type LexiconWriter interface {
	PutDictionaryEntries(ctx context.Context, entries []*domain.DictionaryEntry) error
}

// ContentRecord is one element of a content.json file. Records with an id
// replace the stored document on reload.
type ContentRecord struct {
	ID     string `json:"id,omitempty"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Format string `json:"format,omitempty"`
	Method string `json:"method,omitempty"`
	Level  string `json:"level,omitempty"`
	Length string `json:"length,omitempty"`
	Style  string `json:"style,omitempty"`
	Prompt string `json:"prompt,omitempty"`
}

// Sources lists the files to load.
type Sources struct {
	Content    []string
	Dictionary []string
}

// Report summarizes a load.
type Report struct {
	Contents int      `json:"contents"`
	Entries  int      `json:"entries"`
	Skipped  []string `json:"skipped,omitempty"`
}

// Loader loads JSON source files, skipping those the manifest shows as
// already loaded.
type Loader struct {
	indexer      *Indexer
	lexicon      LexiconWriter
	manifestPath string
	force        bool
	logger       *slog.Logger
}

// NewLoader creates a Loader that records its progress in dataDir. force
// reloads files even when unchanged.
func NewLoader(indexer *Indexer, lexicon LexiconWriter, dataDir string, force bool, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		indexer:      indexer,
		lexicon:      lexicon,
		manifestPath: filepath.Join(dataDir, store.ManifestFilename),
		force:        force,
		logger:       logger,
	}
}

// Load loads every source and saves the manifest. Dictionary files are
// loaded before content files.
func (l *Loader) Load(ctx context.Context, sources Sources) (Report, error) {
	var report Report

	manifest, err := store.LoadManifest(l.manifestPath)
	if err != nil {
		return report, err
	}

	for _, path := range sources.Dictionary {
		n, skipped, err := l.loadFile(ctx, manifest, KindDictionary, path, l.loadDictionary)
		if err != nil {
			return report, saveAfterError(err, manifest, l.manifestPath)
		}
		report.Entries += n
		if skipped {
			report.Skipped = append(report.Skipped, path)
		}
	}

	for _, path := range sources.Content {
		n, skipped, err := l.loadFile(ctx, manifest, KindContent, path, l.loadContent)
		if err != nil {
			return report, saveAfterError(err, manifest, l.manifestPath)
		}
		report.Contents += n
		if skipped {
			report.Skipped = append(report.Skipped, path)
		}
	}

	return report, manifest.Save(l.manifestPath)
}

func saveAfterError(err error, manifest *store.Manifest, path string) error {
	if saveErr := manifest.Save(path); saveErr != nil {
		return fmt.Errorf("%w (manifest not saved: %v)", err, saveErr)
	}
	return err
}

func (l *Loader) loadFile(ctx context.Context, manifest *store.Manifest, kind, path string,
	load func(context.Context, []byte) (int, error)) (int, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false, fmt.Errorf("stat %s: %w", path, err)
	}
	if !l.force && manifest.Unchanged(path, info) {
		l.logger.Info("Source unchanged, skipping", "path", path)
		return 0, true, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false, fmt.Errorf("read %s: %w", path, err)
	}

	n, err := load(ctx, data)
	if err != nil {
		manifest.RecordError(path, kind, err)
		return n, false, fmt.Errorf("load %s: %w", path, err)
	}

	manifest.RecordLoad(path, kind, info, n)
	l.logger.Info("Loaded source", "path", path, "kind", kind, "records", n)
	return n, false, nil
}

func (l *Loader) loadContent(ctx context.Context, data []byte) (int, error) {
	var records []ContentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("parse content: %w", err)
	}

	loaded := 0
	for start := 0; start < len(records); start += BatchSize {
		end := min(start+BatchSize, len(records))
		docs := make([]*domain.ContentDocument, 0, end-start)
		for _, r := range records[start:end] {
			docs = append(docs, &domain.ContentDocument{
				ID:     r.ID,
				Title:  r.Title,
				Text:   r.Text,
				Format: r.Format,
				Method: r.Method,
				Level:  r.Level,
				Length: r.Length,
				Style:  r.Style,
				Prompt: r.Prompt,
			})
		}
		if err := l.indexer.Index(ctx, docs...); err != nil {
			return loaded, err
		}
		loaded += len(docs)
	}
	return loaded, nil
}

func (l *Loader) loadDictionary(ctx context.Context, data []byte) (int, error) {
	var entries []*domain.DictionaryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("parse dictionary: %w", err)
	}

	loaded := 0
	for start := 0; start < len(entries); start += BatchSize {
		end := min(start+BatchSize, len(entries))
		batch := entries[start:end]
		for _, e := range batch {
			if len(e.QueryStrs) == 0 {
				e.QueryStrs = []string{e.WrittenForm}
			}
		}
		if err := l.lexicon.PutDictionaryEntries(ctx, batch); err != nil {
			return loaded, err
		}
		loaded += len(batch)
	}
	return loaded, nil
}
