package logger

import (
	"context"
	"io"
	"log"
	"os"
)

// BootstrapLogger is used while the configuration is still being loaded.
// It writes plain lines to stderr so it never mixes with rendered output.
type BootstrapLogger struct {
	logger  *log.Logger
	verbose bool
}

// NewBootstrapLogger creates a simple logger for bootstrap phase
func NewBootstrapLogger() *BootstrapLogger {
	return NewBootstrapLoggerTo(os.Stderr, false)
}

// NewBootstrapLoggerTo creates a bootstrap logger on w. Debug and Info lines
// are only written when verbose is set.
func NewBootstrapLoggerTo(w io.Writer, verbose bool) *BootstrapLogger {
	return &BootstrapLogger{
		logger:  log.New(w, "[BOOTSTRAP] ", log.LstdFlags),
		verbose: verbose,
	}
}

// Debug logs a message at debug level
func (b *BootstrapLogger) Debug(ctx context.Context, msg string, args ...any) {
	if b.verbose {
		b.logger.Printf("DEBUG: %s %v", msg, args)
	}
}

// Info logs a message at info level
func (b *BootstrapLogger) Info(ctx context.Context, msg string, args ...any) {
	if b.verbose {
		b.logger.Printf("INFO: %s %v", msg, args)
	}
}

// Warn logs a message at warn level
func (b *BootstrapLogger) Warn(ctx context.Context, msg string, args ...any) {
	b.logger.Printf("WARN: %s %v", msg, args)
}

// Error logs a message at error level
func (b *BootstrapLogger) Error(ctx context.Context, msg string, args ...any) {
	b.logger.Printf("ERROR: %s %v", msg, args)
}

var _ Logger = (*BootstrapLogger)(nil)
