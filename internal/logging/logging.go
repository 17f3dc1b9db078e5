// Package logging hands out the process-wide structured logger.
package logging

import (
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
)

var (
	once   sync.Once
	logger hclog.Logger
)

// GetLogger returns the shared logger. The level comes from
// SCHEMATRACK_LOG_LEVEL and defaults to info.
func GetLogger() hclog.Logger {
	once.Do(func() {
		level := os.Getenv("SCHEMATRACK_LOG_LEVEL")
		if level == "" {
			level = "info"
		}
		logger = hclog.New(&hclog.LoggerOptions{
			Name:  "schematrack",
			Level: hclog.LevelFromString(level),
		})
	})
	return logger
}
