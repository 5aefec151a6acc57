package sandbox

import (
	"context"
	"time"

	"github.com/GriffinCanCode/nodeshim/internal/registry"
	"go.uber.org/zap"
)

// Config defines sandbox configuration
type Config struct {
	BaseDirectory    string             // Anchor for path.resolve and __dirname, must be drive-rooted
	Timeout          time.Duration      // Execution timeout
	MaxCallStack     int                // goja call stack limit
	MaxRequireDepth  int                // Nested require limit
	ProgressInterval int                // Require calls between progress checks
	EnableConsole    bool               // Allow console.log/warn/error/info
	Manifest         *registry.Manifest // Known modules; nil means the embedded default
	Logger           *zap.Logger
	Recorder         registry.Recorder
}

// Result holds execution result
type Result struct {
	ID       string        `json:"id"`
	Value    interface{}   `json:"value"`
	Console  []LogEntry    `json:"console"`
	Requires []string      `json:"requires"` // Specifiers passed to require, in call order
	Duration time.Duration `json:"duration"`
	Error    error         `json:"-"`
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    `json:"level"` // log, warn, error, info
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Sandbox defines the JavaScript execution interface
type Sandbox interface {
	Execute(ctx context.Context, script string) (*Result, error)
	Reset() error
	Close() error
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BaseDirectory:    `C:\workspace`,
		Timeout:          5 * time.Second,
		MaxCallStack:     1024,
		MaxRequireDepth:  registry.DefaultMaxDepth,
		ProgressInterval: registry.DefaultProgressInterval,
		EnableConsole:    true,
	}
}
