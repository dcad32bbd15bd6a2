package config

import (
	"context"
	"fmt"
	"log/slog"
)

// ParseLogLevel converts a level name to a slog.Level. Empty means info.
func ParseLogLevel(name string) (slog.Level, error) {
	switch name {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q", name)
	}
}

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: transport", "value", s.Transport)
	if s.Transport == "sse" {
		logger.InfoContext(ctx, "Config: host", "value", s.Host)
		logger.InfoContext(ctx, "Config: port", "value", s.Port)
	}
	logger.InfoContext(ctx, "Config: log_level", "value", s.LogLevel)
	logger.InfoContext(ctx, "Config: data_dir", "value", s.DataDir)
	logger.InfoContext(ctx, "Config: max_results", "value", s.MaxResults)

	logger.InfoContext(ctx, "Config: mecab.binary", "value", s.Mecab.Binary)
	if s.Mecab.DicDir != "" {
		logger.InfoContext(ctx, "Config: mecab.dicdir", "value", s.Mecab.DicDir)
	}

	if s.Ranker.URL != "" {
		logger.InfoContext(ctx, "Config: ranker.url", "value", s.Ranker.URL)
		logger.InfoContext(ctx, "Config: ranker.timeout", "value", s.Ranker.Timeout)
	} else {
		logger.InfoContext(ctx, "Config: ranker", "value", "uniform")
	}
}

// SettingsLogValue returns a slog.Value for Settings
func SettingsLogValue(s Settings) slog.Value {
	return slog.GroupValue(
		slog.String("transport", s.Transport),
		slog.String("host", s.Host),
		slog.Int("port", s.Port),
		slog.String("log_level", s.LogLevel),
		slog.String("data_dir", s.DataDir),
		slog.Int("max_results", s.MaxResults),
		slog.Group("mecab",
			slog.String("binary", s.Mecab.Binary),
			slog.String("dicdir", s.Mecab.DicDir),
		),
		slog.Group("ingest",
			slog.Float64("rate_limit", s.Ingest.RateLimit),
			slog.Int("burst", s.Ingest.Burst),
			slog.Duration("lock_timeout", s.Ingest.LockTimeout),
		),
		slog.Group("ranker",
			slog.String("url", s.Ranker.URL),
			slog.Duration("timeout", s.Ranker.Timeout),
		),
	)
}
