package config

import "go.uber.org/zap"

// setLogger builds the zap logger for the given environment name. Anything other than
// production or development gets the verbose example logger used for local runs.
func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	default:
		return zap.NewExample(), nil
	}
}
