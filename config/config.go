package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// --- Configuration Structs ---

// DefaultsConfig holds the engine defaults applied when a CLI flag or API
// field is left unset.
type DefaultsConfig struct {
	Encoding  string `mapstructure:"encoding"`
	Delimiter string `mapstructure:"delimiter"`
}

// ChunkingConfig holds the per-operation chunk sizes, in rows.
type ChunkingConfig struct {
	MergeChunkSize     int `mapstructure:"merge_chunk_size"`
	SummarizeChunkSize int `mapstructure:"summarize_chunk_size"`
}

type Config struct {
	Defaults DefaultsConfig `mapstructure:"defaults"`
	Chunking ChunkingConfig `mapstructure:"chunking"`
	LogPath  string         `mapstructure:"log_path"`
	Port     string         `mapstructure:"port"`
}

// --- Load Configuration ---

// Default returns the built-in configuration used when no config file is
// given.
func Default() *Config {
	return &Config{
		Defaults: DefaultsConfig{Encoding: "auto", Delimiter: "auto"},
		Chunking: ChunkingConfig{MergeChunkSize: 50000, SummarizeChunkSize: 10000},
		LogPath:  "tally.log",
		Port:     "5555",
	}
}

// LoadConfig reads a YAML config file and overlays it on the defaults.
// An empty path returns the defaults untouched.
func LoadConfig(configPath string) (*Config, error) {
	cfg := Default()
	if configPath == "" {
		return cfg, nil
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// --- Validation Functions ---

// validate is a helper function to reduce repetition.
func validate(condition bool, format string, a ...any) error {
	if !condition {
		return fmt.Errorf(format, a...)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Defaults.Validate(); err != nil {
		return fmt.Errorf("defaults validation failed: %w", err)
	}
	if err := c.Chunking.Validate(); err != nil {
		return fmt.Errorf("chunking validation failed: %w", err)
	}
	return nil
}

func (dc *DefaultsConfig) Validate() error {
	if err := validate(dc.Encoding != "", "default encoding is required"); err != nil {
		return err
	}
	return validate(dc.Delimiter != "", "default delimiter is required")
}

func (cc *ChunkingConfig) Validate() error {
	if err := validate(cc.MergeChunkSize > 0, "merge chunk size must be positive"); err != nil {
		return err
	}
	return validate(cc.SummarizeChunkSize > 0, "summarize chunk size must be positive")
}
