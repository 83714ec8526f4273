package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadResolvesRelativeOutputDir(t *testing.T) {
	cfgPath := writeConfig(t, `
output:
  dir: downloads
`)
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(filepath.Dir(cfgPath), "downloads")
	if cfg.Output.Dir != want {
		t.Fatalf("Output.Dir = %q, want %q", cfg.Output.Dir, want)
	}
	if cfg.IsDev() {
		t.Fatalf("expected IsDev() = false by default")
	}
}

func TestLoadDevFlag(t *testing.T) {
	cfgPath := writeConfig(t, `
nus:
  dev: true
output:
  dir: downloads
`)
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.IsDev() {
		t.Fatalf("expected IsDev() = true")
	}
}

func TestLoadFailsWithoutOutputDir(t *testing.T) {
	cfgPath := writeConfig(t, `
nus:
  dev: false
`)
	_, err := Load(cfgPath)
	if err == nil || !strings.Contains(err.Error(), "config.output.dir is required") {
		t.Fatalf("expected missing output dir error, got %v", err)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	cfgPath := writeConfig(t, `
output:
  dir: downloads
bogus_field: true
`)
	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}
