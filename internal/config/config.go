// Package config handles global configuration for the extractor.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig is stored in $XDG_CONFIG_HOME/refextract/config.yml.
// Everything in it is optional; flags and environment take precedence.
type GlobalConfig struct {
	CrossRefMailto  string `yaml:"crossref_mailto,omitempty"`
	DOICacheTTLDays int    `yaml:"doi_cache_ttl_days,omitempty"` // 0 = entries never expire
	OCRLanguage     string `yaml:"ocr_language,omitempty"`
	PdfiumPath      string `yaml:"pdfium_path,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "refextract"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// GlobalConfigPath returns the path of the global config file. Respects
// XDG_CONFIG_HOME, defaults to ~/.config/refextract/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global config file. A missing file is not an
// error and yields an empty config.
func LoadGlobalConfig() (*GlobalConfig, error) {
	return loadGlobalConfigFrom(GlobalConfigPath())
}

func loadGlobalConfigFrom(path string) (*GlobalConfig, error) {
	cfg := &GlobalConfig{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.DOICacheTTLDays < 0 {
		return nil, fmt.Errorf("%s: doi_cache_ttl_days must not be negative", path)
	}
	return cfg, nil
}
