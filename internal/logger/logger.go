// internal/logger/logger.go
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/catalog-backend/internal/config"
)

// Setup configures the logrus standard logger from cfg.
func Setup(cfg config.LogConfig) error {
	return Configure(logrus.StandardLogger(), cfg, os.Stdout)
}

func Configure(l *logrus.Logger, cfg config.LogConfig, out io.Writer) error {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	switch strings.ToLower(cfg.Format) {
	case "json", "":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q", cfg.Format)
	}

	l.SetLevel(level)
	l.SetOutput(out)
	return nil
}
