package app

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestRegisterFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	RegisterServerFlags(flags)
	RegisterIngestFlags(flags)
	RegisterQueryFlags(flags)

	// Verify all flags are registered
	expectedFlags := []string{
		"data-dir",
		"log-level",
		"mecab-binary",
		"mecab-dicdir",
		"ranker-url",
		"ranker-timeout",
		"ingest-lock-timeout",
		"transport",
		"host",
		"port",
		"max-results",
		"content",
		"dictionary",
		"force",
		"ingest-rate-limit",
		"ingest-burst",
		"sentence",
		"punctuation",
	}

	for _, name := range expectedFlags {
		if flags.Lookup(name) == nil {
			t.Errorf("Expected flag %q to be registered", name)
		}
	}
}

func TestRegisterFlags_Shorthand(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	RegisterServerFlags(flags)
	RegisterIngestFlags(flags)
	RegisterQueryFlags(flags)

	shorthandFlags := map[string]string{
		"data-dir":    "d",
		"log-level":   "l",
		"transport":   "t",
		"host":        "H",
		"port":        "p",
		"max-results": "n",
		"content":     "c",
		"dictionary":  "D",
		"force":       "f",
		"sentence":    "s",
	}

	for name, shorthand := range shorthandFlags {
		flag := flags.Lookup(name)
		if flag == nil {
			t.Errorf("Flag %q not found", name)
			continue
		}
		if flag.Shorthand != shorthand {
			t.Errorf("Flag %q expected shorthand %q, got %q", name, shorthand, flag.Shorthand)
		}
	}
}

func TestRegisterFlags_SetValues(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	RegisterIngestFlags(flags)

	err := flags.Parse([]string{
		"--data-dir", "/srv/l2ai",
		"--ranker-timeout", "3s",
		"-c", "a.json,b.json",
		"-D", "dict.json",
		"--force",
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if v, _ := flags.GetString("data-dir"); v != "/srv/l2ai" {
		t.Errorf("data-dir = %q", v)
	}
	if v, _ := flags.GetDuration("ranker-timeout"); v != 3*time.Second {
		t.Errorf("ranker-timeout = %v", v)
	}
	if v, _ := flags.GetStringSlice("content"); len(v) != 2 || v[1] != "b.json" {
		t.Errorf("content = %v", v)
	}
	if v, _ := flags.GetStringSlice("dictionary"); len(v) != 1 || v[0] != "dict.json" {
		t.Errorf("dictionary = %v", v)
	}
	if v, _ := flags.GetBool("force"); !v {
		t.Error("force not set")
	}
}
