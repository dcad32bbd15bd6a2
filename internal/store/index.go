package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/whitespace"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/l2ai/l2ai-search/internal/domain"
)

const (
	// IndexSuffix is the suffix for index directories
	IndexSuffix = ".bleve"

	// pageSize is the number of hits fetched per search request.
	pageSize = 1000

	queryStrAnalyzer = "query_str"
)

// lexiconDoc is what the lexicon index stores for a dictionary entry.
type lexiconDoc struct {
	WrittenForm string   `json:"written_form"`
	QueryStrs   []string `json:"query_strs"`
}

// corpusDoc is what the corpus index stores for a content document.
type corpusDoc struct {
	Title     string   `json:"title"`
	Units     []string `json:"units"`
	Modifiers []string `json:"modifiers"`
}

// LexiconMapping indexes each query string split on whitespace, so a key
// string matches an entry when they share any term.
func LexiconMapping() (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()
	err := indexMapping.AddCustomAnalyzer(queryStrAnalyzer, map[string]any{
		"type":          custom.Name,
		"tokenizer":     whitespace.Name,
		"token_filters": []string{},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register analyzer: %w", err)
	}

	docMapping := bleve.NewDocumentMapping()

	queryField := bleve.NewTextFieldMapping()
	queryField.Analyzer = queryStrAnalyzer
	docMapping.AddFieldMappingsAt(domain.EntryFieldQueryStrs, queryField)

	formField := bleve.NewTextFieldMapping()
	formField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(domain.EntryFieldWrittenForm, formField)

	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = keyword.Name
	return indexMapping, nil
}

// CorpusMapping indexes the distinct surfaces of each document's maps as
// exact keywords.
func CorpusMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	for _, field := range []string{domain.ContentFieldUnits, domain.ContentFieldModifiers} {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = keyword.Name
		docMapping.AddFieldMappingsAt(field, f)
	}

	titleField := bleve.NewTextFieldMapping()
	titleField.Index = false
	docMapping.AddFieldMappingsAt(domain.ContentFieldTitle, titleField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = keyword.Name
	return indexMapping
}

// openIndex opens the index at dir/indexes/name, creating it with m when it
// does not exist yet. created reports whether a new, empty index was made.
func openIndex(dir, name string, m mapping.IndexMapping) (index bleve.Index, created bool, err error) {
	path := filepath.Join(dir, "indexes", name+IndexSuffix)

	index, err = bleve.Open(path)
	if err == nil {
		return index, false, nil
	}
	if !errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		return nil, false, fmt.Errorf("failed to open index %s: %w", name, err)
	}

	index, err = bleve.New(path, m)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create index %s: %w", name, err)
	}
	return index, true, nil
}

// matchingIDs returns the ids of every document matching q in ascending id
// order. IDs are ULIDs, so this is insertion order.
func matchingIDs(ctx context.Context, index bleve.Index, q query.Query) ([]string, error) {
	var ids []string
	for from := 0; ; from += pageSize {
		req := bleve.NewSearchRequestOptions(q, pageSize, from, false)
		req.SortBy([]string{"_id"})

		res, err := index.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		for _, hit := range res.Hits {
			ids = append(ids, hit.ID)
		}
		if len(res.Hits) < pageSize {
			return ids, nil
		}
	}
}
