package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/stefanpenner/quest/pkg/logging"
	"github.com/stefanpenner/quest/pkg/store"
)

// FileName is the config file looked up inside the data directory.
const FileName = "config.yaml"

// EnvPrefix prefixes environment overrides, e.g. QUEST_LOG_LEVEL.
const EnvPrefix = "QUEST"

// JournalConfig controls the SQLite event journal.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"` // relative to the data dir
}

// Config is the application configuration.
type Config struct {
	// ProgressFile is the progress file name (relative to the data dir) or
	// an absolute path. A .yaml/.yml extension selects the full-fidelity
	// format.
	ProgressFile string `mapstructure:"progress_file" yaml:"progress_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// SeedStarterGoals starts a fresh ledger with the starter goals when no
	// progress file exists yet.
	SeedStarterGoals bool `mapstructure:"seed_starter_goals" yaml:"seed_starter_goals"`

	Journal JournalConfig `mapstructure:"journal" yaml:"journal"`

	// DataDir is where the config was loaded from. Not read from the file.
	DataDir string `mapstructure:"-" yaml:"-"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		ProgressFile:     store.DefaultProgressFile,
		LogLevel:         "warn",
		SeedStarterGoals: false,
		Journal: JournalConfig{
			Enabled: true,
			Path:    "journal.db",
		},
	}
}

// Path returns the config file location for a data directory.
func Path(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// Load reads <dataDir>/config.yaml, applying defaults for missing keys and
// QUEST_* environment overrides. A missing file yields the defaults.
func Load(dataDir string) (*Config, error) {
	d := Default()

	v := viper.New()
	v.SetConfigFile(Path(dataDir))
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("progress_file", d.ProgressFile)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("seed_starter_goals", d.SeedStarterGoals)
	v.SetDefault("journal.enabled", d.Journal.Enabled)
	v.SetDefault("journal.path", d.Journal.Path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", Path(dataDir), err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", Path(dataDir), err)
	}
	cfg.DataDir = dataDir

	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("config %s: %w", Path(dataDir), err)
	}
	return cfg, nil
}

// Save writes cfg to <dataDir>/config.yaml.
func Save(dataDir string, cfg *Config) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory %s: %w", dataDir, err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("progress_file", cfg.ProgressFile)
	v.Set("log_level", cfg.LogLevel)
	v.Set("seed_starter_goals", cfg.SeedStarterGoals)
	v.Set("journal.enabled", cfg.Journal.Enabled)
	v.Set("journal.path", cfg.Journal.Path)

	if err := v.WriteConfigAs(Path(dataDir)); err != nil {
		return fmt.Errorf("writing config to %s: %w", Path(dataDir), err)
	}
	return nil
}

// JournalPath resolves the journal database path against the data dir.
func (c *Config) JournalPath() string {
	if c.Journal.Path == "" || c.Journal.Path == ":memory:" || filepath.IsAbs(c.Journal.Path) {
		return c.Journal.Path
	}
	return filepath.Join(c.DataDir, c.Journal.Path)
}

// Level returns the parsed log level.
func (c *Config) Level() logging.Level {
	lvl, _ := logging.ParseLevel(c.LogLevel)
	return lvl
}
