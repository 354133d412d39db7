package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/filepipe/filepipe/parse"
)

// fileConfig is the optional YAML config file. Environment variables
// override nothing here; the file fills what env leaves unset.
type fileConfig struct {
	Limits         parse.Limits `yaml:"limits"`
	MaxFileSize    int64        `yaml:"max_file_size"`
	TimeoutSeconds int          `yaml:"timeout_seconds"`
	CacheDB        string       `yaml:"cache_db"`
	Port           string       `yaml:"port"`
}

func (c *fileConfig) timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func loadConfig(path string) (*fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
