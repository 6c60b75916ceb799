// Package logging builds the single *zap.Logger every binary constructs
// once in main and passes down by constructor injection.
package logging

import "go.uber.org/zap"

func New(mode string) (*zap.Logger, error) {
	if mode == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
