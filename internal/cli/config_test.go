package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.Precision != 6 {
		t.Errorf("Precision = %d, want 6", cfg.Precision)
	}
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	content := "log_level: debug\nprecision: 3\n"
	if err := os.WriteFile(filepath.Join(dir, "pullback.yml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Precision != 3 {
		t.Errorf("Precision = %d, want 3", cfg.Precision)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
