package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/l2ai/l2ai-search/internal/config"
	"github.com/l2ai/l2ai-search/internal/ingest"
	"github.com/l2ai/l2ai-search/internal/morph/morphtest"
	"github.com/l2ai/l2ai-search/internal/store"
	"github.com/spf13/pflag"
)

func testCommandParams(t *testing.T, settings *config.Settings) (CommandParams, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	tokenizer := testTokenizer()
	return CommandParams{
		LoadSettings: func(*pflag.FlagSet) (*config.Settings, error) {
			return settings, nil
		},
		ValidSettings: config.ValidateSettings,
		OpenServices: func(ctx context.Context, s *config.Settings, logger *slog.Logger) (*Services, error) {
			return OpenServicesWithTokenizer(ctx, s, tokenizer, logger)
		},
		Out: &out,
		Log: &bytes.Buffer{},
	}, &out
}

func writeJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func ingestFixtures(t *testing.T, params CommandParams) {
	t.Helper()
	src := t.TempDir()
	content := writeJSON(t, src, "content.json", []ingest.ContentRecord{
		{ID: "c1", Title: "학교", Text: "학교에 간다."},
		{ID: "c2", Title: "집", Text: "집에 왔다."},
	})
	dict := writeJSON(t, src, "dictionary.json", []map[string]any{{
		"writtenForm": "학교",
		"queryStrs":   []string{"학교"},
		"senses":      []map[string]any{{"definition": "학생을 가르치는 기관."}},
	}})

	action := IngestAction(ingest.Sources{Content: []string{content}, Dictionary: []string{dict}}, false)
	if err := RunCommand(context.Background(), params, nil, action); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
}

func TestRunCommand_IngestAndSearch(t *testing.T) {
	settings := testSettings(t)
	params, out := testCommandParams(t, settings)

	ingestFixtures(t, params)

	var report ingest.Report
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("ingest output is not JSON: %v\n%s", err, out.String())
	}
	if report.Contents != 2 || report.Entries != 1 {
		t.Errorf("report = %+v", report)
	}

	out.Reset()
	if err := RunCommand(context.Background(), params, nil, SearchAction("학교")); err != nil {
		t.Fatalf("search failed: %v", err)
	}

	var hits []SearchHit
	if err := json.Unmarshal(out.Bytes(), &hits); err != nil {
		t.Fatalf("search output is not JSON: %v\n%s", err, out.String())
	}
	if len(hits) != 1 || hits[0].ID != "c1" {
		t.Fatalf("hits = %+v", hits)
	}
	if len(hits[0].Excerpts) != 1 || hits[0].Excerpts[0].Text != "학교에 간다." {
		t.Errorf("excerpts = %+v", hits[0].Excerpts)
	}
	if len(hits[0].Groups) != 1 || len(hits[0].Groups[0]) == 0 {
		t.Errorf("groups = %+v", hits[0].Groups)
	}
}

func TestRunCommand_SearchMaxResults(t *testing.T) {
	settings := testSettings(t)
	params, out := testCommandParams(t, settings)
	ingestFixtures(t, params)

	settings.MaxResults = 1
	out.Reset()
	// 에 is a modifier in both documents.
	params.OpenServices = func(ctx context.Context, s *config.Settings, logger *slog.Logger) (*Services, error) {
		tk := testTokenizer()
		tk.Add("에", morphtest.M("에", "JKB"))
		return OpenServicesWithTokenizer(ctx, s, tk, logger)
	}
	if err := RunCommand(context.Background(), params, nil, SearchAction("에")); err != nil {
		t.Fatalf("search failed: %v", err)
	}

	var hits []SearchHit
	if err := json.Unmarshal(out.Bytes(), &hits); err != nil {
		t.Fatalf("search output is not JSON: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("Expected results capped at 1, got %d", len(hits))
	}
}

func TestRunCommand_KeyAndLookup(t *testing.T) {
	settings := testSettings(t)
	params, out := testCommandParams(t, settings)
	ingestFixtures(t, params)

	out.Reset()
	if err := RunCommand(context.Background(), params, nil, KeyAction("가", nil, false)); err != nil {
		t.Fatalf("key failed: %v", err)
	}
	var key KeyOutput
	if err := json.Unmarshal(out.Bytes(), &key); err != nil {
		t.Fatalf("key output is not JSON: %v", err)
	}
	if key.Key != "가다" {
		t.Errorf("key = %+v", key)
	}

	out.Reset()
	if err := RunCommand(context.Background(), params, nil, LookupAction("학교", nil)); err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !strings.Contains(out.String(), `"writtenForm": "학교"`) {
		t.Errorf("lookup output missing entry:\n%s", out.String())
	}

	out.Reset()
	if err := RunCommand(context.Background(), params, nil, InferAction("학교", nil)); err != nil {
		t.Fatalf("infer failed: %v", err)
	}
	if !strings.Contains(out.String(), `"rank": 1`) {
		t.Errorf("infer output missing rank:\n%s", out.String())
	}

	out.Reset()
	if err := RunCommand(context.Background(), params, nil, StatsAction()); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if !strings.Contains(out.String(), `"contents": 2`) {
		t.Errorf("stats output:\n%s", out.String())
	}
}

func TestRunCommand_Delete(t *testing.T) {
	settings := testSettings(t)
	params, out := testCommandParams(t, settings)
	ingestFixtures(t, params)

	out.Reset()
	if err := RunCommand(context.Background(), params, nil, DeleteAction("c1")); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	var deleted DeleteOutput
	if err := json.Unmarshal(out.Bytes(), &deleted); err != nil {
		t.Fatalf("delete output is not JSON: %v", err)
	}
	if len(deleted.Deleted) != 1 || deleted.Deleted[0] != "c1" {
		t.Errorf("deleted = %+v", deleted)
	}

	out.Reset()
	if err := RunCommand(context.Background(), params, nil, SearchAction("학교")); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	var hits []SearchHit
	if err := json.Unmarshal(out.Bytes(), &hits); err != nil {
		t.Fatalf("search output is not JSON: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Expected deleted document to be gone from search, got %+v", hits)
	}

	err := RunCommand(context.Background(), params, nil, DeleteAction("c1"))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestRunCommand_Reindex(t *testing.T) {
	settings := testSettings(t)
	params, out := testCommandParams(t, settings)
	ingestFixtures(t, params)

	out.Reset()
	if err := RunCommand(context.Background(), params, nil, ReindexAction()); err != nil {
		t.Fatalf("reindex failed: %v", err)
	}
	var report store.ReindexReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("reindex output is not JSON: %v", err)
	}
	if report.Contents != 2 || report.Entries != 1 || report.Removed != 0 {
		t.Errorf("report = %+v", report)
	}
}

func TestRunCommand_Errors(t *testing.T) {
	settings := testSettings(t)
	params, _ := testCommandParams(t, settings)

	err := RunCommand(context.Background(), params, nil, IngestAction(ingest.Sources{}, false))
	if err == nil || !strings.Contains(err.Error(), "nothing to ingest") {
		t.Errorf("Expected nothing to ingest error, got %v", err)
	}

	params.LoadSettings = func(*pflag.FlagSet) (*config.Settings, error) {
		return nil, errors.New("boom")
	}
	err = RunCommand(context.Background(), params, nil, StatsAction())
	if err == nil || !strings.Contains(err.Error(), "failed to load settings") {
		t.Errorf("Expected settings error, got %v", err)
	}

	bad := *settings
	bad.Transport = "carrier-pigeon"
	params.LoadSettings = func(*pflag.FlagSet) (*config.Settings, error) {
		return &bad, nil
	}
	err = RunCommand(context.Background(), params, nil, StatsAction())
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestRunCommand_ActionErrorReleasesLock(t *testing.T) {
	settings := testSettings(t)
	params, _ := testCommandParams(t, settings)

	failing := func(context.Context, *Services) (any, error) {
		return nil, errors.New("action failed")
	}
	if err := RunCommand(context.Background(), params, nil, failing); err == nil {
		t.Fatal("Expected action error")
	}

	if err := RunCommand(context.Background(), params, nil, StatsAction()); err != nil {
		t.Errorf("Expected data directory to be released, got %v", err)
	}
}

func TestOptional(t *testing.T) {
	if Optional("") != nil {
		t.Error("Expected nil for empty string")
	}
	if p := Optional("x"); p == nil || *p != "x" {
		t.Errorf("Optional(x) = %v", p)
	}
}
