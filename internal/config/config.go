// Package config provides configuration loading and structs for the osusume server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Recommend RecommendConfig `yaml:"recommend"`
	Matching  MatchingConfig  `yaml:"matching"`
	Seed      SeedConfig      `yaml:"seed"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database and the catalog index.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// RecommendConfig holds course recommendation settings.
type RecommendConfig struct {
	// DefaultLimit is the number of recommendations returned when the
	// request does not specify one.
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
	// CandidatePoolSize is the size of the pre-filter similarity pool used
	// only in legacy truncation mode.
	CandidatePoolSize int `yaml:"candidate_pool_size"`
	// LegacyPoolTruncation restores the historical ordering where the
	// similarity pool is truncated before level/category/enrollment filters
	// run, which can starve results under strict filters. Off by default;
	// enable only for callers depending on the old behavior.
	LegacyPoolTruncation bool `yaml:"legacy_pool_truncation"`
}

// MatchingConfig holds skill matching weights and limits.
type MatchingConfig struct {
	SkillWeight          float64 `yaml:"skill_weight"`
	InterestWeight       float64 `yaml:"interest_weight"`
	ComplementaryBonus   float64 `yaml:"complementary_bonus"`
	ComplementaryWeight  float64 `yaml:"complementary_weight"`
	CommonWeight         float64 `yaml:"common_weight"`
	MentorSkillWeight    float64 `yaml:"mentor_skill_weight"`
	MentorInterestWeight float64 `yaml:"mentor_interest_weight"`
	MatchLimit           int     `yaml:"match_limit"`
	MentorLimit          int     `yaml:"mentor_limit"`
}

// SeedConfig holds seed data import settings.
type SeedConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	for i := range cfg.Seed.Directories {
		cfg.Seed.Directories[i] = expandPath(cfg.Seed.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
