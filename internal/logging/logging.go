// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/config"
)

// Setup applies level and format from cfg to the standard logger and
// returns it. Unknown levels fall back to info.
func Setup(cfg *config.LogConfig) *log.Logger {
	return configure(log.StandardLogger(), cfg, os.Stdout)
}

func configure(logger *log.Logger, cfg *config.LogConfig, out io.Writer) *log.Logger {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&log.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	}
	logger.SetReportCaller(cfg.Caller)
	logger.SetOutput(out)
	return logger
}
