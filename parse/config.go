package parse

import (
	"log/slog"
	"time"
)

// Config configures a Dispatcher.
type Config struct {
	// Limits are the class defaults applied when a call leaves an option unset.
	Limits Limits `yaml:"limits"`

	// MaxFileSize rejects files larger than this before any codec runs
	// (default: 100 MB).
	MaxFileSize int64 `yaml:"max_file_size"`

	// Timeout bounds a single parse call. Zero means the caller's context
	// is the only deadline.
	Timeout time.Duration `yaml:"timeout"`

	// Logger for debug/error messages.
	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	zero := Limits{}
	if c.Limits == zero {
		c.Limits = DefaultLimits()
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
