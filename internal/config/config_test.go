package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
recommend:
  default_limit: 8
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Recommend.DefaultLimit != 8 {
		t.Errorf("default_limit = %d, want 8", cfg.Recommend.DefaultLimit)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "./data/db/platform.db"
seed:
  directories: ["./dev/seed"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "platform.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if len(cfg.Seed.Directories) != 1 {
		t.Fatalf("seed directories: got %d", len(cfg.Seed.Directories))
	}
	wantSeed := filepath.Join(dir, "dev", "seed")
	if cfg.Seed.Directories[0] != wantSeed {
		t.Errorf("seed directory = %s, want %s", cfg.Seed.Directories[0], wantSeed)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Recommend.DefaultLimit != 5 {
		t.Errorf("default recommend limit: got %d", cfg.Recommend.DefaultLimit)
	}
	if cfg.Recommend.CandidatePoolSize != 10 {
		t.Errorf("default candidate pool size: got %d", cfg.Recommend.CandidatePoolSize)
	}
	if cfg.Recommend.LegacyPoolTruncation {
		t.Error("legacy pool truncation should default to false")
	}
	if cfg.Matching.SkillWeight != 0.6 || cfg.Matching.InterestWeight != 0.3 || cfg.Matching.ComplementaryBonus != 0.05 {
		t.Errorf("matching weights: %+v", cfg.Matching)
	}
	if cfg.Matching.ComplementaryWeight != 0.7 || cfg.Matching.CommonWeight != 0.3 {
		t.Errorf("complementary weights: %+v", cfg.Matching)
	}
	if cfg.Matching.MentorSkillWeight != 0.7 || cfg.Matching.MentorInterestWeight != 0.3 {
		t.Errorf("mentor weights: %+v", cfg.Matching)
	}
	if cfg.Matching.MatchLimit != 10 || cfg.Matching.MentorLimit != 5 {
		t.Errorf("match limits: %+v", cfg.Matching)
	}
	if len(cfg.Seed.Extensions) != 3 || cfg.Seed.Extensions[0] != ".json" {
		t.Errorf("seed extensions: %v", cfg.Seed.Extensions)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}
