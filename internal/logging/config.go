package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type Config struct {
	Level  string    `validate:"oneof=debug info warn error"`
	Format string    `validate:"oneof=json console text"`
	Output io.Writer `validate:"-"`
}

func (c *Config) setDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == nil {
		c.Output = os.Stderr
	}
}

// New builds a Logger from cfg: zerolog for the json and console formats,
// log/slog for text. The level is applied to the returned logger only,
// never globally.
func New(cfg Config) (Logger, error) {
	cfg.setDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("logger config validation error: %w", err)
	}

	if cfg.Format == "text" {
		l, err := newTextLogger(cfg.Output, cfg.Level)
		if err != nil {
			return nil, err
		}
		return l, nil
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	w := cfg.Output
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.Kitchen}
	}

	l := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return NewZerologLogger(l), nil
}
