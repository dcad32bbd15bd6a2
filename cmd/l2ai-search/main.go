package main

import (
	"context"
	"os"

	"github.com/l2ai/l2ai-search/internal/app"
	"github.com/l2ai/l2ai-search/internal/ingest"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "l2ai-search"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, Build, ProgramName, args[1:]); err != nil {
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing
func Execute(version, build, programName string, args []string) error {
	rootCmd := &cobra.Command{
		Use:     programName,
		Short:   "L2AI search MCP server",
		Long:    "Korean learning content search and dictionary lookup over MCP, with commands to load and query the data directory",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithFlags(cmd.Context(), cmd.Flags(), version)
		},
	}

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	app.RegisterFlags(rootCmd.PersistentFlags())
	app.RegisterServerFlags(rootCmd.Flags())

	rootCmd.AddCommand(
		ingestCommand(),
		keyCommand(),
		lookupCommand(),
		inferCommand(),
		searchCommand(),
		statsCommand(),
		deleteCommand(),
		reindexCommand(),
	)

	rootCmd.SetArgs(args)

	return rootCmd.ExecuteContext(context.Background())
}

func runWithFlags(ctx context.Context, flags *pflag.FlagSet, version string) error {
	return app.RunWithDeps(ctx, app.DefaultRunParams(), flags, version)
}

func runAction(cmd *cobra.Command, action app.Action) error {
	return app.RunCommand(cmd.Context(), app.DefaultCommandParams(), cmd.Flags(), action)
}

func ingestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load dictionary and content JSON files into the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, _ := cmd.Flags().GetStringSlice("content")
			dictionary, _ := cmd.Flags().GetStringSlice("dictionary")
			force, _ := cmd.Flags().GetBool("force")
			sources := ingest.Sources{Content: content, Dictionary: dictionary}
			return runAction(cmd, app.IngestAction(sources, force))
		},
	}
	app.RegisterIngestFlags(cmd.Flags())
	return cmd
}

func keyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key <query>",
		Short: "Print the dictionary headword forms of a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sentence, _ := cmd.Flags().GetString("sentence")
			punctuation, _ := cmd.Flags().GetBool("punctuation")
			return runAction(cmd, app.KeyAction(args[0], app.Optional(sentence), punctuation))
		},
	}
	app.RegisterQueryFlags(cmd.Flags())
	return cmd
}

func lookupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <query>",
		Short: "Print the dictionary entries for every word of a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sentence, _ := cmd.Flags().GetString("sentence")
			return runAction(cmd, app.LookupAction(args[0], app.Optional(sentence)))
		},
	}
	app.RegisterQueryFlags(cmd.Flags())
	return cmd
}

func inferCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infer <query>",
		Short: "Rank the senses of every word of a query in context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sentence, _ := cmd.Flags().GetString("sentence")
			return runAction(cmd, app.InferAction(args[0], app.Optional(sentence)))
		},
	}
	app.RegisterQueryFlags(cmd.Flags())
	return cmd
}

func searchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the content corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, app.SearchAction(args[0]))
		},
	}
	cmd.Flags().IntP("max-results", "n", 0, "Maximum number of results")
	return cmd
}

func statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, app.StatsAction())
		},
	}
}

func deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Remove content documents from the data directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, app.DeleteAction(args...))
		},
	}
}

func reindexCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search indexes from the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, app.ReindexAction())
		},
	}
}
