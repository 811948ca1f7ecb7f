package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadGlobalConfigMissing(t *testing.T) {
	cfg, err := loadGlobalConfigFrom(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("missing config must not error: %v", err)
	}
	if cfg.CrossRefMailto != "" || cfg.DOICacheTTLDays != 0 {
		t.Errorf("missing config must be empty, got %+v", cfg)
	}
}

func TestLoadGlobalConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := "crossref_mailto: someone@example.org\ndoi_cache_ttl_days: 30\nocr_language: eng\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadGlobalConfigFrom(path)
	if err != nil {
		t.Fatalf("loadGlobalConfigFrom: %v", err)
	}
	if cfg.CrossRefMailto != "someone@example.org" {
		t.Errorf("mailto = %q", cfg.CrossRefMailto)
	}
	if cfg.DOICacheTTLDays != 30 {
		t.Errorf("ttl = %d", cfg.DOICacheTTLDays)
	}
	if cfg.OCRLanguage != "eng" {
		t.Errorf("ocr language = %q", cfg.OCRLanguage)
	}
}

func TestLoadGlobalConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("doi_cache_ttl_days: -2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadGlobalConfigFrom(path); err == nil {
		t.Error("negative TTL must be rejected")
	}

	if err := os.WriteFile(path, []byte(":\tnot yaml"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadGlobalConfigFrom(path); err == nil {
		t.Error("malformed yaml must be rejected")
	}
}
