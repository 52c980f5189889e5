// Package logger builds the application's logrus logger from configuration.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/mrlokans/rwclient/internal/config"
	"github.com/sirupsen/logrus"
)

// New creates a logger writing to stderr with the configured level and format.
func New(cfg config.Log) *logrus.Logger {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput creates a logger writing to out.
func NewWithOutput(cfg config.Log, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(parseLevel(cfg.Level))

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

// parseLevel falls back to info for unknown values
func parseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
