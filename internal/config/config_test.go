package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()

	if cfg.Server.HTTPAddr != ":9000" {
		t.Errorf("Server.HTTPAddr = %q, want :9000", cfg.Server.HTTPAddr)
	}
	if cfg.Server.LogLevel != "info" {
		t.Errorf("Server.LogLevel = %q, want info", cfg.Server.LogLevel)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q, want sqlite", cfg.Storage.Driver)
	}
	if cfg.Storage.DSN != "taxiid.db" {
		t.Errorf("Storage.DSN = %q, want taxiid.db", cfg.Storage.DSN)
	}
	if cfg.Auth.TokenTTL.String() != "30m0s" {
		t.Errorf("Auth.TokenTTL = %s, want 30m0s", cfg.Auth.TokenTTL)
	}
	if cfg.Taxii2.DefaultLimit != 100 || cfg.Taxii2.MaxLimit != 1000 {
		t.Errorf("Taxii2 limits = %d/%d, want 100/1000", cfg.Taxii2.DefaultLimit, cfg.Taxii2.MaxLimit)
	}
	if cfg.Metrics.Addr != ":9001" {
		t.Errorf("Metrics.Addr = %q, want :9001", cfg.Metrics.Addr)
	}
}

func TestSetDefaultsPreservesExistingValues(t *testing.T) {
	cfg := Config{
		Server:  ServerConfig{HTTPAddr: ":8443", LogLevel: "debug"},
		Storage: StorageConfig{Driver: "memory"},
	}
	cfg.SetDefaults()

	if cfg.Server.HTTPAddr != ":8443" {
		t.Errorf("Server.HTTPAddr was overwritten: %q", cfg.Server.HTTPAddr)
	}
	if cfg.Server.LogLevel != "debug" {
		t.Errorf("Server.LogLevel was overwritten: %q", cfg.Server.LogLevel)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("Storage.Driver was overwritten: %q", cfg.Storage.Driver)
	}
	if cfg.Storage.DSN != "" {
		t.Errorf("Storage.DSN should stay empty for a memory driver, got %q", cfg.Storage.DSN)
	}
}

func TestSetDefaultsFillsServiceMaxResultSize(t *testing.T) {
	cfg := Config{Taxii1x: Taxii1xConfig{Services: []ServiceConfig{{ID: "poll"}}}}
	cfg.SetDefaults()

	if got := cfg.Taxii1x.Services[0].MaxResultSize; got != 1_000_000 {
		t.Errorf("MaxResultSize = %d, want 1000000", got)
	}
}

func TestSetDevDefaultsNoopWhenDevModeOff(t *testing.T) {
	var cfg Config
	cfg.SetDevDefaults()

	if cfg.Storage.Driver != "" || cfg.Auth.TokenSecret != "" || len(cfg.Taxii1x.Services) != 0 {
		t.Fatal("SetDevDefaults modified config despite DevMode=false")
	}
}

func TestSetDevDefaultsSeedsServices(t *testing.T) {
	cfg := Config{DevMode: true}
	cfg.SetDevDefaults()

	if cfg.Storage.Driver != "memory" {
		t.Errorf("Storage.Driver = %q, want memory", cfg.Storage.Driver)
	}
	if cfg.Auth.TokenSecret == "" {
		t.Error("expected a dev token secret to be seeded")
	}
	if len(cfg.Taxii1x.Services) != 3 {
		t.Fatalf("expected 3 seeded services, got %d", len(cfg.Taxii1x.Services))
	}
}

func TestFindConfigFileInPaths_EmptyDir(t *testing.T) {
	dir := t.TempDir()
	if got := findConfigFileInPaths([]string{dir}); got != "" {
		t.Errorf("expected no match in empty dir, got %q", got)
	}
}

func TestFindConfigFileInPaths_MatchesYAML(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "taxiid.yaml")

	got := findConfigFileInPaths([]string{dir})
	if got == "" {
		t.Fatal("expected a match")
	}
}

func TestFindConfigFileInPaths_IgnoresNoExtension(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "taxiid")

	if got := findConfigFileInPaths([]string{dir}); got != "" {
		t.Errorf("expected no match for extensionless file, got %q", got)
	}
}

func writeTempFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("server:\n  http_addr: \":9000\"\n"), 0o644); err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
}
