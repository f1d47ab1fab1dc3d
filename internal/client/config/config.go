package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/feedbackkit/internal/common"
)

// Config holds runtime settings for the feedbackkit CLI.
type Config struct {
	APIRoot       string `validate:"required,url"`
	TenantID      string `validate:"required"`
	ApplicationID string `validate:"required"`

	// AccessToken is handed to the backend as-is. When empty the CLI asks
	// for one on the terminal.
	AccessToken string

	StorageDir        string `validate:"required"`
	StoragePassphrase string

	PageSize       int           `validate:"min=1,max=100"`
	RequestTimeout time.Duration `validate:"min=0"`
	CacheTTL       time.Duration `validate:"min=0"`

	Locale string
	Debug  bool

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console text"`
}

// Default returns a Config with every optional field set.
func Default() *Config {
	return &Config{
		APIRoot:        "https://api.parra.io/v1",
		StorageDir:     defaultStorageDir(),
		PageSize:       15,
		RequestTimeout: 10 * time.Second,
		CacheTTL:       5 * time.Minute,
		Locale:         "en_US",
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

func defaultStorageDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "feedbackkit")
	}
	return ".feedbackkit"
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports every invalid field as a validation error keyed by field
// name.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return common.System(err)
	}

	failures := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		failures[fe.Field()] = describe(fe)
	}
	return common.Validation(failures)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be an absolute URL"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}
