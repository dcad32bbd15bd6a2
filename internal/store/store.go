// Package store persists corpus documents and the lexicon in SQLite and keeps
// the Bleve indexes used to find them.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/l2ai/l2ai-search/internal/domain"
	"github.com/l2ai/l2ai-search/internal/surfacemap"
)

// DatabaseFilename is the SQLite file inside the data directory.
const DatabaseFilename = "l2ai.db"

// maxQueryVars bounds the number of bound parameters in one IN clause.
const maxQueryVars = 500

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Store holds content documents, dictionary entries and senses.
// Reads are safe for concurrent use; writes are serialized so a document's
// record and index entry are replaced together.
type Store struct {
	db      *sql.DB
	lexicon bleve.Index
	corpus  bleve.Index
	logger  *slog.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Stats counts stored records.
type Stats struct {
	Contents int `json:"contents"`
	Entries  int `json:"entries"`
	Senses   int `json:"senses"`
}

// Open opens or creates a store in dir.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, DatabaseFilename)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{
		db:      db,
		logger:  logger,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	lexiconMapping, err := LexiconMapping()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	var lexiconCreated, corpusCreated bool
	if s.lexicon, lexiconCreated, err = openIndex(dir, "lexicon", lexiconMapping); err != nil {
		_ = db.Close()
		return nil, err
	}
	if s.corpus, corpusCreated, err = openIndex(dir, "corpus", CorpusMapping()); err != nil {
		_ = s.lexicon.Close()
		_ = db.Close()
		return nil, err
	}

	ctx := context.Background()
	if lexiconCreated {
		if _, _, err := s.reindexEntries(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("rebuild lexicon index: %w", err)
		}
	}
	if corpusCreated {
		if _, _, err := s.reindexContents(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("rebuild corpus index: %w", err)
		}
	}

	return s, nil
}

// Close releases the database and indexes.
func (s *Store) Close() error {
	return errors.Join(s.corpus.Close(), s.lexicon.Close(), s.db.Close())
}

func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS contents (
		id            TEXT PRIMARY KEY,
		title         TEXT NOT NULL DEFAULT '',
		text          TEXT NOT NULL,
		format        TEXT NOT NULL DEFAULT '',
		method        TEXT NOT NULL DEFAULT '',
		level         TEXT NOT NULL DEFAULT '',
		length        TEXT NOT NULL DEFAULT '',
		style         TEXT NOT NULL DEFAULT '',
		prompt        TEXT NOT NULL DEFAULT '',
		last_modified TEXT NOT NULL,
		units         TEXT NOT NULL,
		modifiers     TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS dictionary_entries (
		id              TEXT PRIMARY KEY,
		source_id       TEXT NOT NULL DEFAULT '',
		source_language TEXT NOT NULL DEFAULT '',
		written_form    TEXT NOT NULL,
		variations      TEXT,
		part_of_speech  TEXT NOT NULL DEFAULT '',
		grade           TEXT NOT NULL DEFAULT '',
		query_strs      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_written_form ON dictionary_entries(written_form);

	CREATE TABLE IF NOT EXISTS senses (
		id             TEXT PRIMARY KEY,
		entry_id       TEXT NOT NULL REFERENCES dictionary_entries(id) ON DELETE CASCADE,
		seq            INTEGER NOT NULL,
		sense_no       TEXT NOT NULL DEFAULT '',
		definition     TEXT NOT NULL,
		part_of_speech TEXT NOT NULL DEFAULT '',
		examples       TEXT,
		type           TEXT NOT NULL DEFAULT '',
		equivalents    TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_senses_entry ON senses(entry_id, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// PutContent stores doc, replacing any document with the same id. An empty
// id is assigned a new one. The caller rebuilds the surface maps whenever
// the text changes; both are written together.
func (s *Store) PutContent(ctx context.Context, doc *domain.ContentDocument) error {
	return s.PutContents(ctx, []*domain.ContentDocument{doc})
}

// PutContents stores docs in one transaction and one index batch.
func (s *Store) PutContents(ctx context.Context, docs []*domain.ContentDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	batch := s.corpus.NewBatch()
	now := time.Now().UTC()

	for _, doc := range docs {
		if err := doc.Units.Validate(); err != nil {
			return fmt.Errorf("content %q units: %w", doc.Title, err)
		}
		if err := doc.Modifiers.Validate(); err != nil {
			return fmt.Errorf("content %q modifiers: %w", doc.Title, err)
		}
		if doc.ID == "" {
			doc.ID = s.newID()
		}
		doc.LastModified = now

		units, err := json.Marshal(doc.Units)
		if err != nil {
			return err
		}
		modifiers, err := json.Marshal(doc.Modifiers)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO contents (id, title, text, format, method, level, length, style, prompt, last_modified, units, modifiers)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			doc.ID, doc.Title, doc.Text, doc.Format, doc.Method, doc.Level, doc.Length, doc.Style, doc.Prompt,
			now.Format(time.RFC3339Nano), string(units), string(modifiers))
		if err != nil {
			return fmt.Errorf("insert content: %w", err)
		}

		if err := batch.Index(doc.ID, corpusDoc{
			Title:     doc.Title,
			Units:     doc.Units.Surfaces,
			Modifiers: doc.Modifiers.Surfaces,
		}); err != nil {
			return fmt.Errorf("index content %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return s.syncIndex(ctx, "corpus", s.corpus, batch, s.reindexContents)
}

// GetContent returns the document with the given id.
func (s *Store) GetContent(ctx context.Context, id string) (*domain.ContentDocument, error) {
	docs, err := s.contentsByID(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("content %s: %w", id, ErrNotFound)
	}
	return &docs[0], nil
}

// DeleteContent removes a document and its index entry.
func (s *Store) DeleteContent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM contents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("content %s: %w", id, ErrNotFound)
	}

	batch := s.corpus.NewBatch()
	batch.Delete(id)
	return s.syncIndex(ctx, "corpus", s.corpus, batch, s.reindexContents)
}

// FindBySurfaceMembership returns every document whose map of the given kind
// contains at least one of surfaces, oldest first.
func (s *Store) FindBySurfaceMembership(ctx context.Context, kind surfacemap.Kind, surfaces []string) ([]domain.ContentDocument, error) {
	if len(surfaces) == 0 {
		return nil, nil
	}

	field := domain.ContentFieldUnits
	if kind == surfacemap.Modifiers {
		field = domain.ContentFieldModifiers
	}

	terms := make([]query.Query, len(surfaces))
	for i, surface := range surfaces {
		tq := bleve.NewTermQuery(surface)
		tq.SetField(field)
		terms[i] = tq
	}

	ids, err := matchingIDs(ctx, s.corpus, bleve.NewDisjunctionQuery(terms...))
	if err != nil {
		return nil, err
	}
	return s.contentsByID(ctx, ids)
}

// PutDictionaryEntry stores an entry together with its senses.
func (s *Store) PutDictionaryEntry(ctx context.Context, entry *domain.DictionaryEntry) error {
	return s.PutDictionaryEntries(ctx, []*domain.DictionaryEntry{entry})
}

// PutDictionaryEntries stores entries and their senses in one transaction.
// Entries and senses without an id are assigned one; an existing entry's
// senses are replaced.
func (s *Store) PutDictionaryEntries(ctx context.Context, entries []*domain.DictionaryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	batch := s.lexicon.NewBatch()

	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = s.newID()
		}
		queryStrs, _ := json.Marshal(entry.QueryStrs)
		variations, _ := json.Marshal(entry.Variations)

		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO dictionary_entries (id, source_id, source_language, written_form, variations, part_of_speech, grade, query_strs)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.ID, entry.SourceID, entry.SourceLanguage, entry.WrittenForm, string(variations),
			entry.PartOfSpeech, entry.Grade, string(queryStrs))
		if err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM senses WHERE entry_id = ?`, entry.ID); err != nil {
			return fmt.Errorf("replace senses: %w", err)
		}
		for i := range entry.Senses {
			sense := &entry.Senses[i]
			if sense.ID == "" {
				sense.ID = s.newID()
			}
			sense.EntryID = entry.ID
			examples, _ := json.Marshal(sense.Examples)
			equivalents, _ := json.Marshal(sense.Equivalents)

			_, err = tx.ExecContext(ctx,
				`INSERT INTO senses (id, entry_id, seq, sense_no, definition, part_of_speech, examples, type, equivalents)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				sense.ID, entry.ID, i, sense.SenseNo, sense.Definition, sense.PartOfSpeech,
				string(examples), sense.Type, string(equivalents))
			if err != nil {
				return fmt.Errorf("insert sense: %w", err)
			}
		}

		if err := batch.Index(entry.ID, lexiconDoc{WrittenForm: entry.WrittenForm, QueryStrs: entry.QueryStrs}); err != nil {
			return fmt.Errorf("index entry %s: %w", entry.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return s.syncIndex(ctx, "lexicon", s.lexicon, batch, s.reindexEntries)
}

// FindEntriesByText returns the entries sharing at least one
// whitespace-separated term with predicate. Senses are not attached.
func (s *Store) FindEntriesByText(ctx context.Context, predicate string) ([]domain.DictionaryEntry, error) {
	if strings.TrimSpace(predicate) == "" {
		return nil, nil
	}

	mq := bleve.NewMatchQuery(predicate)
	mq.SetField(domain.EntryFieldQueryStrs)
	mq.Analyzer = queryStrAnalyzer

	ids, err := matchingIDs(ctx, s.lexicon, mq)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	return queryByIDs(ctx, s.db,
		`SELECT id, source_id, source_language, written_form, variations, part_of_speech, grade, query_strs
		 FROM dictionary_entries WHERE id IN (%s) ORDER BY id`,
		ids, scanEntry)
}

// FindSensesByEntry returns an entry's senses in their stored order.
func (s *Store) FindSensesByEntry(ctx context.Context, entryID string) ([]domain.Sense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entry_id, sense_no, definition, part_of_speech, examples, type, equivalents
		 FROM senses WHERE entry_id = ? ORDER BY seq`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var senses []domain.Sense
	for rows.Next() {
		sense, err := scanSense(rows)
		if err != nil {
			return nil, err
		}
		senses = append(senses, sense)
	}
	return senses, rows.Err()
}

// Stats counts the stored records.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM contents),
		        (SELECT COUNT(*) FROM dictionary_entries),
		        (SELECT COUNT(*) FROM senses)`).Scan(&st.Contents, &st.Entries, &st.Senses)
	return st, err
}

func (s *Store) contentsByID(ctx context.Context, ids []string) ([]domain.ContentDocument, error) {
	return queryByIDs(ctx, s.db,
		`SELECT id, title, text, format, method, level, length, style, prompt, last_modified, units, modifiers
		 FROM contents WHERE id IN (%s) ORDER BY id`,
		ids, scanContent)
}

// queryByIDs runs selectSQL for ids in chunks of maxQueryVars. selectSQL
// must order by id so that chunks concatenate in ascending id order.
func queryByIDs[T any](ctx context.Context, db *sql.DB, selectSQL string, ids []string, scan func(scanner) (T, error)) ([]T, error) {
	ids = slices.Clone(ids)
	slices.Sort(ids)

	var out []T
	for chunk := range slices.Chunk(ids, maxQueryVars) {
		rows, err := db.QueryContext(ctx, fmt.Sprintf(selectSQL, placeholders(len(chunk))), anySlice(chunk)...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			v, err := scan(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			out = append(out, v)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContent(row scanner) (domain.ContentDocument, error) {
	var d domain.ContentDocument
	var lastModified, units, modifiers string
	err := row.Scan(&d.ID, &d.Title, &d.Text, &d.Format, &d.Method, &d.Level, &d.Length, &d.Style, &d.Prompt,
		&lastModified, &units, &modifiers)
	if err != nil {
		return d, err
	}
	d.LastModified, _ = time.Parse(time.RFC3339Nano, lastModified)
	if err := json.Unmarshal([]byte(units), &d.Units); err != nil {
		return d, fmt.Errorf("content %s units: %w", d.ID, err)
	}
	if err := json.Unmarshal([]byte(modifiers), &d.Modifiers); err != nil {
		return d, fmt.Errorf("content %s modifiers: %w", d.ID, err)
	}
	return d, nil
}

func scanEntry(row scanner) (domain.DictionaryEntry, error) {
	var e domain.DictionaryEntry
	var variations sql.NullString
	var queryStrs string
	err := row.Scan(&e.ID, &e.SourceID, &e.SourceLanguage, &e.WrittenForm, &variations, &e.PartOfSpeech, &e.Grade, &queryStrs)
	if err != nil {
		return e, err
	}
	if variations.Valid {
		_ = json.Unmarshal([]byte(variations.String), &e.Variations)
	}
	if err := json.Unmarshal([]byte(queryStrs), &e.QueryStrs); err != nil {
		return e, fmt.Errorf("entry %s query strings: %w", e.ID, err)
	}
	return e, nil
}

func scanSense(row scanner) (domain.Sense, error) {
	var s domain.Sense
	var examples, equivalents sql.NullString
	err := row.Scan(&s.ID, &s.EntryID, &s.SenseNo, &s.Definition, &s.PartOfSpeech, &examples, &s.Type, &equivalents)
	if err != nil {
		return s, err
	}
	if examples.Valid {
		_ = json.Unmarshal([]byte(examples.String), &s.Examples)
	}
	if equivalents.Valid {
		_ = json.Unmarshal([]byte(equivalents.String), &s.Equivalents)
	}
	return s, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
