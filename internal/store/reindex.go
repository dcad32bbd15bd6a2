package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blevesearch/bleve/v2"

	"github.com/l2ai/l2ai-search/internal/surfacemap"
)

// reindexBatchSize is the number of documents written per index batch while
// rebuilding.
const reindexBatchSize = 1000

// ReindexReport counts what a rebuild wrote to and removed from the indexes.
type ReindexReport struct {
	Contents int `json:"contents"`
	Entries  int `json:"entries"`
	Removed  int `json:"removed"`
}

// Reindex rebuilds both indexes from the database and drops index
// documents that no longer have a record.
func (s *Store) Reindex(ctx context.Context) (ReindexReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report ReindexReport
	entries, removed, err := s.reindexEntries(ctx)
	if err != nil {
		return report, fmt.Errorf("rebuild lexicon index: %w", err)
	}
	report.Entries = entries
	report.Removed += removed

	contents, removed, err := s.reindexContents(ctx)
	if err != nil {
		return report, fmt.Errorf("rebuild corpus index: %w", err)
	}
	report.Contents = contents
	report.Removed += removed

	s.logger.Info("Rebuilt indexes", "contents", report.Contents, "entries", report.Entries, "removed", report.Removed)
	return report, nil
}

// syncIndex applies batch after the database commit. If the batch fails the
// whole index is rebuilt from the database so records are never left
// unindexed.
func (s *Store) syncIndex(ctx context.Context, name string, index bleve.Index, batch *bleve.Batch,
	rebuild func(context.Context) (int, int, error)) error {
	err := index.Batch(batch)
	if err == nil {
		return nil
	}

	s.logger.Error("Index update failed, rebuilding from database", "index", name, "error", err)
	if _, _, rebuildErr := rebuild(ctx); rebuildErr != nil {
		return fmt.Errorf("index %s is out of date: %w", name, errors.Join(err, rebuildErr))
	}
	return nil
}

func (s *Store) reindexContents(ctx context.Context) (indexed, removed int, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, units, modifiers FROM contents ORDER BY id`)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	b := newRebuild(s.corpus)
	for rows.Next() {
		var id, title, unitsJSON, modifiersJSON string
		if err := rows.Scan(&id, &title, &unitsJSON, &modifiersJSON); err != nil {
			return 0, 0, err
		}
		var units, modifiers surfacemap.SurfaceMap
		if err := json.Unmarshal([]byte(unitsJSON), &units); err != nil {
			return 0, 0, fmt.Errorf("content %s units: %w", id, err)
		}
		if err := json.Unmarshal([]byte(modifiersJSON), &modifiers); err != nil {
			return 0, 0, fmt.Errorf("content %s modifiers: %w", id, err)
		}
		if err := b.add(id, corpusDoc{Title: title, Units: units.Surfaces, Modifiers: modifiers.Surfaces}); err != nil {
			return 0, 0, err
		}
	}
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}
	return b.finish(ctx)
}

func (s *Store) reindexEntries(ctx context.Context) (indexed, removed int, err error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, written_form, query_strs FROM dictionary_entries ORDER BY id`)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	b := newRebuild(s.lexicon)
	for rows.Next() {
		var id, writtenForm, queryStrsJSON string
		if err := rows.Scan(&id, &writtenForm, &queryStrsJSON); err != nil {
			return 0, 0, err
		}
		var queryStrs []string
		if err := json.Unmarshal([]byte(queryStrsJSON), &queryStrs); err != nil {
			return 0, 0, fmt.Errorf("entry %s query strings: %w", id, err)
		}
		if err := b.add(id, lexiconDoc{WrittenForm: writtenForm, QueryStrs: queryStrs}); err != nil {
			return 0, 0, err
		}
	}
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}
	return b.finish(ctx)
}

// indexRebuild writes documents to an index in batches and remembers their ids
// so that finish can drop everything else.
type indexRebuild struct {
	index bleve.Index
	batch *bleve.Batch
	keep  map[string]struct{}
}

func newRebuild(index bleve.Index) *indexRebuild {
	return &indexRebuild{index: index, batch: index.NewBatch(), keep: make(map[string]struct{})}
}

func (r *indexRebuild) add(id string, doc any) error {
	if err := r.batch.Index(id, doc); err != nil {
		return fmt.Errorf("index %s: %w", id, err)
	}
	r.keep[id] = struct{}{}
	if r.batch.Size() >= reindexBatchSize {
		return r.flush()
	}
	return nil
}

func (r *indexRebuild) flush() error {
	if r.batch.Size() == 0 {
		return nil
	}
	if err := r.index.Batch(r.batch); err != nil {
		return fmt.Errorf("batch index failed: %w", err)
	}
	r.batch.Reset()
	return nil
}

func (r *indexRebuild) finish(ctx context.Context) (indexed, removed int, err error) {
	if err := r.flush(); err != nil {
		return 0, 0, err
	}

	ids, err := matchingIDs(ctx, r.index, bleve.NewMatchAllQuery())
	if err != nil {
		return 0, 0, err
	}
	for _, id := range ids {
		if _, ok := r.keep[id]; !ok {
			r.batch.Delete(id)
			removed++
		}
	}
	if err := r.flush(); err != nil {
		return 0, 0, err
	}
	return len(r.keep), removed, nil
}
