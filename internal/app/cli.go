package app

import "github.com/spf13/pflag"

// RegisterFlags registers the flags shared by every command on the given
// FlagSet
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("data-dir", "d", "", "Directory holding the database and indexes")
	flags.StringP("log-level", "l", "", "Log level: debug, info, warn or error")
	flags.String("mecab-binary", "", "Path to the mecab executable")
	flags.String("mecab-dicdir", "", "mecab-ko-dic dictionary directory")
	flags.String("ranker-url", "", "Sense ranking service endpoint; senses are ranked equally when unset")
	flags.Duration("ranker-timeout", 0, "Sense ranking request timeout")
	flags.Duration("ingest-lock-timeout", 0, "How long to wait for another process to release the data directory")
}

// RegisterServerFlags registers the MCP server flags on the given FlagSet
func RegisterServerFlags(flags *pflag.FlagSet) {
	flags.StringP("transport", "t", "", "Transport type: stdio or sse")
	flags.StringP("host", "H", "", "Host for SSE transport")
	flags.IntP("port", "p", 0, "Port for SSE transport")
	flags.IntP("max-results", "n", 0, "Maximum number of search results per query")
}

// RegisterIngestFlags registers the ingest command flags on the given FlagSet
func RegisterIngestFlags(flags *pflag.FlagSet) {
	flags.StringSliceP("content", "c", nil, "Content JSON files to load")
	flags.StringSliceP("dictionary", "D", nil, "Dictionary JSON files to load")
	flags.BoolP("force", "f", false, "Reload files even when unchanged since the last load")
	flags.Float64("ingest-rate-limit", 0, "Maximum tokenizer calls per second, 0 for unlimited")
	flags.Int("ingest-burst", 0, "Tokenizer call burst size")
}

// RegisterQueryFlags registers the flags of the key, lookup and infer
// commands on the given FlagSet
func RegisterQueryFlags(flags *pflag.FlagSet) {
	flags.StringP("sentence", "s", "", "Sentence containing the query")
	flags.Bool("punctuation", false, "Keep sentence-final punctuation as keys")
}
