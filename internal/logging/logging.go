// Package logging builds the application logger from configuration.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"acoustic-collector/internal/config"
)

// New returns a logger writing text with full timestamps to stderr, or to
// cfg.File when set. The returned closer releases the file and is never nil.
func New(cfg config.LoggingConfig) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nopCloser{}, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logger.SetLevel(level)

	if cfg.File == "" {
		return logger, nopCloser{}, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nopCloser{}, fmt.Errorf("failed to open log file: %w", err)
	}
	logger.SetOutput(f)
	return logger, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
