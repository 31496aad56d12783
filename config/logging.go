package config

import (
	"go.uber.org/zap"
)

// setLogger builds the zap logger for the given environment. Unknown or
// empty environments get the example logger, which keeps local output
// human readable.
func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "development":
		return zap.NewDevelopment()
	case "production":
		return zap.NewProduction()
	default:
		return zap.NewExample(), nil
	}
}
