package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/l2ai/l2ai-search/internal/config"
	"github.com/l2ai/l2ai-search/internal/ingest"
	"github.com/l2ai/l2ai-search/internal/morph"
	"github.com/l2ai/l2ai-search/internal/surfacemap"
	"github.com/spf13/pflag"
)

// Action is a one-shot command run against opened services. Its result is
// written to the command output as JSON.
type Action func(ctx context.Context, svc *Services) (any, error)

// CommandParams contains dependencies for one-shot commands
type CommandParams struct {
	LoadSettings  func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings func(*config.Settings) error
	OpenServices  func(context.Context, *config.Settings, *slog.Logger) (*Services, error)
	Out           io.Writer
	Log           io.Writer
}

// DefaultCommandParams returns production dependencies
func DefaultCommandParams() CommandParams {
	return CommandParams{
		LoadSettings:  config.LoadSettingsWithFlags,
		ValidSettings: config.ValidateSettings,
		OpenServices:  OpenServices,
		Out:           os.Stdout,
		Log:           os.Stderr,
	}
}

// RunCommand loads settings, opens the services and runs action.
func RunCommand(ctx context.Context, params CommandParams, flags *pflag.FlagSet, action Action) (err error) {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := ConfigureLogging(params.Log, settings.LogLevel)

	svc, err := params.OpenServices(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, svc.Close())
	}()

	result, err := action(ctx, svc)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(params.Out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

// IngestAction loads dictionary and content files into the store.
func IngestAction(sources ingest.Sources, force bool) Action {
	return func(ctx context.Context, svc *Services) (any, error) {
		if len(sources.Content) == 0 && len(sources.Dictionary) == 0 {
			return nil, errors.New("nothing to ingest: pass --content or --dictionary")
		}
		return svc.Loader(force).Load(ctx, sources)
	}
}

// KeyOutput is the result of the key command.
type KeyOutput struct {
	Query string `json:"query"`
	Key   string `json:"key"`
}

// KeyAction reconstructs the lexicon keys of query.
func KeyAction(query string, sentence *string, punctuation bool) Action {
	return func(ctx context.Context, svc *Services) (any, error) {
		key, err := svc.Keys.Reconstruct(ctx, query, sentence, punctuation)
		if err != nil {
			return nil, err
		}
		return KeyOutput{Query: query, Key: key}, nil
	}
}

// LookupAction looks up the dictionary entries of query.
func LookupAction(query string, sentence *string) Action {
	return func(ctx context.Context, svc *Services) (any, error) {
		return svc.Dictionary.Lookup(ctx, query, sentence)
	}
}

// InferAction ranks the senses of query in context.
func InferAction(query string, sentence *string) Action {
	return func(ctx context.Context, svc *Services) (any, error) {
		return svc.Dictionary.Infer(ctx, query, sentence)
	}
}

// SearchHit is one search result as printed by the search command.
type SearchHit struct {
	ID       string               `json:"id"`
	Title    string               `json:"title"`
	Spans    []morph.Span         `json:"spans"`
	Groups   [][]morph.Span       `json:"groups"`
	Excerpts []surfacemap.Excerpt `json:"excerpts"`
}

// SearchAction searches the content corpus, keeping at most max_results
// documents.
func SearchAction(query string) Action {
	return func(ctx context.Context, svc *Services) (any, error) {
		results, err := svc.Search.Search(ctx, query)
		if err != nil {
			return nil, err
		}

		limit := min(len(results), svc.Settings.MaxResults)
		hits := make([]SearchHit, 0, limit)
		for _, r := range results[:limit] {
			hits = append(hits, SearchHit{
				ID:       r.Document.ID,
				Title:    r.Document.Title,
				Spans:    r.Spans,
				Groups:   r.Groups(),
				Excerpts: r.Excerpts(),
			})
		}
		return hits, nil
	}
}

// StatsAction reports record counts.
func StatsAction() Action {
	return func(ctx context.Context, svc *Services) (any, error) {
		return svc.Store.Stats(ctx)
	}
}

// ReindexAction rebuilds the search indexes from the database.
func ReindexAction() Action {
	return func(ctx context.Context, svc *Services) (any, error) {
		return svc.Store.Reindex(ctx)
	}
}

// DeleteOutput is the result of the delete command.
type DeleteOutput struct {
	Deleted []string `json:"deleted"`
}

// DeleteAction removes content documents by id. It stops at the first id
// that does not exist.
func DeleteAction(ids ...string) Action {
	return func(ctx context.Context, svc *Services) (any, error) {
		out := DeleteOutput{Deleted: []string{}}
		for _, id := range ids {
			if err := svc.Store.DeleteContent(ctx, id); err != nil {
				return nil, err
			}
			svc.logger.Info("Deleted content", "id", id)
			out.Deleted = append(out.Deleted, id)
		}
		return out, nil
	}
}

// Optional returns nil for an empty string.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
