package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/feedbackkit/internal/timex"
)

// fileConfig is the on-disk form. Zero values leave the current setting in
// place.
type fileConfig struct {
	APIRoot           string         `json:"api_root" yaml:"api_root"`
	TenantID          string         `json:"tenant_id" yaml:"tenant_id"`
	ApplicationID     string         `json:"application_id" yaml:"application_id"`
	AccessToken       string         `json:"access_token" yaml:"access_token"`
	StorageDir        string         `json:"storage_dir" yaml:"storage_dir"`
	StoragePassphrase string         `json:"storage_passphrase" yaml:"storage_passphrase"`
	PageSize          int            `json:"page_size" yaml:"page_size"`
	RequestTimeout    timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	CacheTTL          timex.Duration `json:"cache_ttl" yaml:"cache_ttl"`
	Locale            string         `json:"locale" yaml:"locale"`
	Debug             bool           `json:"debug" yaml:"debug"`
	LogLevel          string         `json:"log_level" yaml:"log_level"`
	LogFormat         string         `json:"log_format" yaml:"log_format"`
}

// loadFile overlays cfg with the non-zero values found in path.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.APIRoot, fc.APIRoot)
	setString(&cfg.TenantID, fc.TenantID)
	setString(&cfg.ApplicationID, fc.ApplicationID)
	setString(&cfg.AccessToken, fc.AccessToken)
	setString(&cfg.StorageDir, fc.StorageDir)
	setString(&cfg.StoragePassphrase, fc.StoragePassphrase)
	setString(&cfg.Locale, fc.Locale)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	if fc.PageSize != 0 {
		cfg.PageSize = fc.PageSize
	}
	if fc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.CacheTTL.Duration != 0 {
		cfg.CacheTTL = fc.CacheTTL.Duration
	}
	cfg.Debug = cfg.Debug || fc.Debug
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
