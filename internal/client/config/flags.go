package config

import (
	"github.com/spf13/pflag"
)

// Flag names.
const (
	FlagConfig            = "config"
	FlagAPIRoot           = "api-root"
	FlagTenantID          = "tenant"
	FlagApplicationID     = "app"
	FlagAccessToken       = "token"
	FlagStorageDir        = "storage-dir"
	FlagStoragePassphrase = "passphrase"
	FlagPageSize          = "page-size"
	FlagRequestTimeout    = "timeout"
	FlagCacheTTL          = "cache-ttl"
	FlagLocale            = "locale"
	FlagDebug             = "debug"
	FlagLogLevel          = "log-level"
	FlagLogFormat         = "log-format"
)

// RegisterFlags adds every configuration flag to fs. Defaults are shown in
// help output only; Load decides what actually applies.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()

	fs.StringP(FlagConfig, "c", "", "path to a JSON or YAML config file")
	fs.String(FlagAPIRoot, d.APIRoot, "backend API root URL")
	fs.String(FlagTenantID, "", "tenant id")
	fs.String(FlagApplicationID, "", "application id")
	fs.String(FlagAccessToken, "", "access token (prompted for when empty)")
	fs.String(FlagStorageDir, d.StorageDir, "directory for local state")
	fs.String(FlagStoragePassphrase, "", "passphrase protecting local state")
	fs.Int(FlagPageSize, d.PageSize, "items per page")
	fs.Duration(FlagRequestTimeout, d.RequestTimeout, "per-request timeout")
	fs.Duration(FlagCacheTTL, d.CacheTTL, "response cache lifetime")
	fs.String(FlagLocale, d.Locale, "device locale sent to the backend")
	fs.Bool(FlagDebug, false, "mark requests as debug")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn, error")
	fs.String(FlagLogFormat, d.LogFormat, "log format: json, console, text")
}

// Load builds a Config from defaults, the file named by --config and the
// flags explicitly set on fs, in that order, and validates it.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := Default()

	if path, _ := fs.GetString(FlagConfig); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyFlags(cfg, fs); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	strs := map[string]*string{
		FlagAPIRoot:           &cfg.APIRoot,
		FlagTenantID:          &cfg.TenantID,
		FlagApplicationID:     &cfg.ApplicationID,
		FlagAccessToken:       &cfg.AccessToken,
		FlagStorageDir:        &cfg.StorageDir,
		FlagStoragePassphrase: &cfg.StoragePassphrase,
		FlagLocale:            &cfg.Locale,
		FlagLogLevel:          &cfg.LogLevel,
		FlagLogFormat:         &cfg.LogFormat,
	}
	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	var err error
	if fs.Changed(FlagPageSize) {
		if cfg.PageSize, err = fs.GetInt(FlagPageSize); err != nil {
			return err
		}
	}
	if fs.Changed(FlagRequestTimeout) {
		if cfg.RequestTimeout, err = fs.GetDuration(FlagRequestTimeout); err != nil {
			return err
		}
	}
	if fs.Changed(FlagCacheTTL) {
		if cfg.CacheTTL, err = fs.GetDuration(FlagCacheTTL); err != nil {
			return err
		}
	}
	if fs.Changed(FlagDebug) {
		if cfg.Debug, err = fs.GetBool(FlagDebug); err != nil {
			return err
		}
	}
	return nil
}
