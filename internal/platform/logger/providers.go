package logger

import (
	"os"

	"github.com/google/wire"
)

// ProviderSet is the wire provider set for the logger.
var ProviderSet = wire.NewSet(
	NewConfiguredLogger,
	wire.Bind(new(Logger), new(*SlogAdapter)),
)

// Config holds the values needed to configure the logger
type Config struct {
	Environment string
	LogLevel    string
}

// NewConfiguredLogger creates the main application logger from config.
// Logs go to stderr; stdout belongs to the rendered views.
func NewConfiguredLogger(config Config) *SlogAdapter {
	return NewSlogAdapter(os.Stderr, config.Environment, config.LogLevel)
}
