package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by LoadSettings.
const EnvPrefix = "L2AI"

// MecabSettings configuration for the external tagger
type MecabSettings struct {
	Binary string `mapstructure:"binary"`
	DicDir string `mapstructure:"dicdir"`
}

// IngestSettings configuration for bulk loading
type IngestSettings struct {
	RateLimit   float64       `mapstructure:"rate_limit"` // tokenizer calls per second, 0 for unlimited
	Burst       int           `mapstructure:"burst"`
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

// RankerSettings configuration for the sense inference service
type RankerSettings struct {
	URL     string        `mapstructure:"url"` // empty ranks all senses equally
	Timeout time.Duration `mapstructure:"timeout"`
}

// Settings application settings
type Settings struct {
	Transport  string         `mapstructure:"transport"`
	Host       string         `mapstructure:"host"`
	Port       int            `mapstructure:"port"`
	LogLevel   string         `mapstructure:"log_level"`
	DataDir    string         `mapstructure:"data_dir"`
	MaxResults int            `mapstructure:"max_results"`
	Mecab      MecabSettings  `mapstructure:"mecab"`
	Ingest     IngestSettings `mapstructure:"ingest"`
	Ranker     RankerSettings `mapstructure:"ranker"`
}

// keys maps each setting to the CLI flag that overrides it.
var keys = []struct {
	key  string
	flag string
}{
	{"transport", "transport"},
	{"host", "host"},
	{"port", "port"},
	{"log_level", "log-level"},
	{"data_dir", "data-dir"},
	{"max_results", "max-results"},
	{"mecab.binary", "mecab-binary"},
	{"mecab.dicdir", "mecab-dicdir"},
	{"ingest.rate_limit", "ingest-rate-limit"},
	{"ingest.burst", "ingest-burst"},
	{"ingest.lock_timeout", "ingest-lock-timeout"},
	{"ranker.url", "ranker-url"},
	{"ranker.timeout", "ranker-timeout"},
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	v.SetDefault("transport", "stdio")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("max_results", 20)
	v.SetDefault("mecab.binary", "mecab")
	v.SetDefault("mecab.dicdir", "")
	v.SetDefault("ingest.rate_limit", 0.0)
	v.SetDefault("ingest.burst", 1)
	v.SetDefault("ingest.lock_timeout", 30*time.Second)
	v.SetDefault("ranker.url", "")
	v.SetDefault("ranker.timeout", 30*time.Second)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Nested keys need explicit bindings to be picked up by Unmarshal.
	for _, k := range keys {
		_ = v.BindEnv(k.key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(k.key, ".", "_")))
	}

	if flags != nil {
		for _, k := range keys {
			if f := flags.Lookup(k.flag); f != nil {
				_ = v.BindPFlag(k.key, f)
			}
		}
	}

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	settings.DataDir = expandHomeDir(settings.DataDir)
	settings.Mecab.DicDir = expandHomeDir(settings.Mecab.DicDir)
	settings.LogLevel = strings.ToLower(strings.TrimSpace(settings.LogLevel))

	return &settings, nil
}

// defaultDataDir returns the default data directory
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".l2ai"
	}
	return filepath.Join(home, ".l2ai")
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}

// ValidateSettings checks for invalid or conflicting configuration.
func ValidateSettings(s *Settings) error {
	switch s.Transport {
	case "stdio", "sse":
		// valid
	default:
		return errors.New("transport must be 'stdio' or 'sse', got: " + s.Transport)
	}

	if s.Transport == "sse" && (s.Port <= 0 || s.Port > 65535) {
		return fmt.Errorf("port must be between 1 and 65535, got: %d", s.Port)
	}

	if _, err := ParseLogLevel(s.LogLevel); err != nil {
		return err
	}

	if s.DataDir == "" {
		return errors.New("data-dir cannot be empty")
	}

	if s.MaxResults <= 0 {
		return errors.New("max-results must be positive")
	}

	if s.Mecab.Binary == "" {
		return errors.New("mecab-binary cannot be empty")
	}

	if s.Ingest.RateLimit < 0 {
		return errors.New("ingest-rate-limit cannot be negative")
	}

	if s.Ingest.Burst <= 0 {
		return errors.New("ingest-burst must be positive")
	}

	if s.Ingest.LockTimeout <= 0 {
		return errors.New("ingest-lock-timeout must be positive")
	}

	if s.Ranker.URL != "" && s.Ranker.Timeout <= 0 {
		return errors.New("ranker-timeout must be positive when ranker-url is set")
	}

	return nil
}
