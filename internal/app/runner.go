package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/l2ai/l2ai-search/internal/config"
	mcputil "github.com/l2ai/l2ai-search/internal/mcp"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"
)

// RunParams contains dependencies for the run function
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	StartSSEServer    func(*mcp.Server, *config.Settings) error
	CreateServer      func(context.Context, *config.Settings) (*mcp.Server, func(), error)
	CustomIOTransport mcp.Transport // Optional: for testing with custom IO
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:   config.LoadSettingsWithFlags,
		ValidSettings:  config.ValidateSettings,
		StartSSEServer: StartSSEServer,
		CreateServer:   CreateMCPServer,
	}
}

// ConfigureLogging installs a text handler at the configured level as the
// default logger.
func ConfigureLogging(w io.Writer, level string) *slog.Logger {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

// RunWithDeps executes the server with the provided dependencies
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	// Load settings
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Validate settings for conflicting configurations
	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Configure logging - always use stderr, stdout belongs to the stdio transport
	ConfigureLogging(os.Stderr, settings.LogLevel)

	slog.Info("Starting L2AI search server", "version", version)
	config.Log(settings)

	mcpServer, cleanup, err := params.CreateServer(ctx, settings)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	// Start server
	if settings.Transport == "stdio" {
		// Use custom transport if provided (for testing), otherwise use stdio
		transport := params.CustomIOTransport
		if transport == nil {
			transport = &mcp.StdioTransport{}
		}
		return mcpServer.Run(ctx, transport)
	}

	slog.Info("Starting SSE server", "host", settings.Host, "port", settings.Port)
	return params.StartSSEServer(mcpServer, settings)
}

// CreateMCPServer opens the data directory and creates the MCP server with
// registered tools. The returned cleanup releases the data directory.
func CreateMCPServer(ctx context.Context, settings *config.Settings) (*mcp.Server, func(), error) {
	svc, err := OpenServices(ctx, settings, slog.Default())
	if err != nil {
		return nil, nil, err
	}
	return newMCPServer(svc), closeServices(svc), nil
}

func newMCPServer(svc *Services) *mcp.Server {
	return mcputil.CreateServer(mcputil.ServerConfig{
		Name:       "l2ai-search",
		Version:    "1.0.0",
		MaxResults: svc.Settings.MaxResults,
		Keys:       svc.Keys,
		Dictionary: svc.Dictionary,
		Searcher:   svc.Search,
		Contents:   svc.Store,
	})
}

func closeServices(svc *Services) func() {
	return func() {
		if err := svc.Close(); err != nil {
			slog.Error("Failed to close services", "error", err)
		}
	}
}
