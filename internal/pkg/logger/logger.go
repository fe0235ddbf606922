// Package logger builds the process-wide zap logger.
package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New returns a development logger for dev-like environments and a
// production (JSON) logger otherwise.
func New(appEnv string) (*zap.Logger, error) {
	switch strings.ToLower(strings.TrimSpace(appEnv)) {
	case "", "dev", "development", "local", "test":
		return zap.NewDevelopment()
	default:
		return zap.NewProduction()
	}
}
