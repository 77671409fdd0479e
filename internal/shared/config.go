package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML (or YAML) file.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify" yaml:"spotify"`
	Storage  StorageConfig  `toml:"storage" yaml:"storage"`
	Database DatabaseConfig `toml:"database" yaml:"database"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

// SpotifyConfig contains Spotify API credentials and extraction settings.
type SpotifyConfig struct {
	ClientID     string  `toml:"client_id" yaml:"client_id"`
	ClientSecret string  `toml:"client_secret" yaml:"client_secret"`
	TokenURL     string  `toml:"token_url" yaml:"token_url"`
	BaseURL      string  `toml:"base_url" yaml:"base_url"`
	PlaylistURL  string  `toml:"playlist_url" yaml:"playlist_url"`
	RateLimit    float64 `toml:"rate_limit" yaml:"rate_limit"`
	PageSize     int     `toml:"page_size" yaml:"page_size"`
}

// StorageConfig describes where raw and transformed objects live.
type StorageConfig struct {
	Backend           string `toml:"backend" yaml:"backend"` // s3 or local
	Bucket            string `toml:"bucket" yaml:"bucket"`
	Region            string `toml:"region" yaml:"region"`
	Endpoint          string `toml:"endpoint" yaml:"endpoint"`
	ForcePathStyle    bool   `toml:"force_path_style" yaml:"force_path_style"`
	Root              string `toml:"root" yaml:"root"` // local backend directory
	RawPrefix         string `toml:"raw_prefix" yaml:"raw_prefix"`
	ProcessedPrefix   string `toml:"processed_prefix" yaml:"processed_prefix"`
	TransformedPrefix string `toml:"transformed_prefix" yaml:"transformed_prefix"`
	RawExtension      string `toml:"raw_extension" yaml:"raw_extension"`
	OutputExtension   string `toml:"output_extension" yaml:"output_extension"`
}

// DatabaseConfig contains run-history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path" yaml:"path"`
	MaxOpenConns int    `toml:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns" yaml:"max_idle_conns"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// LoadConfig reads and parses a configuration file from the specified path.
//
// Files ending in .yaml or .yml are decoded as YAML, everything else as TOML.
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("%w: storage.bucket is required for the s3 backend", ErrInvalidConfig)
		}
	case "local":
		if c.Storage.Root == "" {
			return fmt.Errorf("%w: storage.root is required for the local backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	if c.Storage.RawPrefix == "" || c.Storage.ProcessedPrefix == "" || c.Storage.TransformedPrefix == "" {
		return fmt.Errorf("%w: storage prefixes must not be empty", ErrInvalidConfig)
	}
	// Listing is recursive, so an archive under the raw prefix would be listed again.
	if prefixesOverlap(c.Storage.RawPrefix, c.Storage.ProcessedPrefix) {
		return fmt.Errorf("%w: raw prefix %q and processed prefix %q overlap",
			ErrInvalidConfig, c.Storage.RawPrefix, c.Storage.ProcessedPrefix)
	}
	return nil
}

// prefixesOverlap reports whether a and b are equal or one is nested in the other.
func prefixesOverlap(a, b string) bool {
	a, b = strings.Trim(a, "/"), strings.Trim(b, "/")
	return a == b || strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}
