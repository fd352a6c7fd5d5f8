package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level   string
	Pretty  bool
	Service string
}

func New(cfg Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	service := cfg.Service
	if service == "" {
		service = "shojo-backend"
	}
	return zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", service).
		Logger()
}
