package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	want := DefaultConfig()
	want.Search.Matrix = "DNA"
	want.Search.Alphabet = "ACGT"
	want.Search.WordSize = 11
	want.Server.MaxWordSize = 12
	want.CLI.Color = false
	if err := SaveConfig(want, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if *got != *want {
		t.Errorf("expected %+v, got %+v", *want, *got)
	}
}

func TestLoadConfigMissingKeysKeepDefaults(t *testing.T) {
	path := writeConfig(t, "[search]\nthreshold = 13\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Search.Threshold != 13 {
		t.Errorf("expected threshold 13, got %d", cfg.Search.Threshold)
	}
	if cfg.Search.WordSize != 3 || cfg.Search.Matrix != "BLOSUM62" {
		t.Errorf("expected defaults for unset keys, got %+v", cfg.Search)
	}
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	// word_size has the wrong type; the rest of the file still applies.
	path := writeConfig(t, "[search]\nmatrix = \"DNA\"\nword_size = \"three\"\n[cli]\ndefault_limit = 5\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Search.Matrix != "DNA" {
		t.Errorf("expected matrix DNA, got %q", cfg.Search.Matrix)
	}
	if cfg.Search.WordSize != 3 {
		t.Errorf("expected default word size, got %d", cfg.Search.WordSize)
	}
	if cfg.CLI.DefaultLimit != 5 {
		t.Errorf("expected limit 5, got %d", cfg.CLI.DefaultLimit)
	}
}

func TestLoadConfigGarbageFallsBackToDefaults(t *testing.T) {
	path := writeConfig(t, "this is [not toml")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("expected defaults, got %+v", *cfg)
	}
}

func TestInitConfigCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := InitConfig(path)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("expected defaults, got %+v", *cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file to be written: %v", err)
	}
}

func TestLoadConfigWithPriorityCustomPath(t *testing.T) {
	path := writeConfig(t, "[server]\ncache_entries = 4\n")
	cfg, used, err := LoadConfigWithPriority(path)
	if err != nil {
		t.Fatalf("LoadConfigWithPriority failed: %v", err)
	}
	if used != path {
		t.Errorf("expected %s to be used, got %s", path, used)
	}
	if cfg.Server.CacheEntries != 4 {
		t.Errorf("expected cache_entries 4, got %d", cfg.Server.CacheEntries)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SEEDSERVE_MATRIX", "DNA")
	t.Setenv("SEEDSERVE_WORD_SIZE", "8")
	t.Setenv("SEEDSERVE_THRESHOLD", "not-a-number")
	t.Setenv("SEEDSERVE_THREADS", "2")
	t.Setenv("SEEDSERVE_DATA", "/opt/matrices")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	if cfg.Search.Matrix != "DNA" || cfg.Search.WordSize != 8 || cfg.Search.Threads != 2 {
		t.Errorf("env overrides not applied: %+v", cfg.Search)
	}
	if cfg.Search.Threshold != 11 {
		t.Errorf("unparsable threshold should be ignored, got %d", cfg.Search.Threshold)
	}
	if cfg.Search.DataDir != "/opt/matrices" {
		t.Errorf("expected data dir override, got %q", cfg.Search.DataDir)
	}
	if cfg.Search.Alphabet != "" {
		t.Errorf("switching matrix should drop the amino acid alphabet, got %q", cfg.Search.Alphabet)
	}
}

func TestSetMatrixKeepsAlphabetForSameMatrix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetMatrix("blosum62")
	if cfg.Search.Alphabet != DefaultConfig().Search.Alphabet {
		t.Errorf("expected alphabet to survive, got %q", cfg.Search.Alphabet)
	}
	t.Setenv("SEEDSERVE_MATRIX", "DNA")
	t.Setenv("SEEDSERVE_ALPHABET", "ACG")
	cfg.ApplyEnv()
	if cfg.Search.Matrix != "DNA" || cfg.Search.Alphabet != "ACG" {
		t.Errorf("expected DNA over ACG, got %+v", cfg.Search)
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero word size", func(c *Config) { c.Search.WordSize = 0 }},
		{"negative threads", func(c *Config) { c.Search.Threads = -1 }},
		{"word size above limit", func(c *Config) { c.Search.WordSize = 7 }},
		{"negative cache", func(c *Config) { c.Server.CacheEntries = -1 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestEffectiveThreads(t *testing.T) {
	if got := (SearchConfig{Threads: 3}).EffectiveThreads(); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := (SearchConfig{}).EffectiveThreads(); got != runtime.NumCPU() {
		t.Errorf("expected %d, got %d", runtime.NumCPU(), got)
	}
	if got := (SearchConfig{Threads: -3}).EffectiveThreads(); got != -3 {
		t.Errorf("negative threads must not turn into all CPUs, got %d", got)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only read on linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path, err := GetDefaultConfigPath()
	if err != nil {
		t.Fatalf("GetDefaultConfigPath failed: %v", err)
	}
	if expected := filepath.Join(dir, "seedserve", "config.toml"); path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}
}
