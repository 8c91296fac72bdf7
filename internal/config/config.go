// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/crackedoura/backend/internal/httpapi"
	"github.com/crackedoura/backend/internal/storage"
)

// Environment variables
const (
	EnvDataDir      = "CRACKEDOURA_DATA_DIR"
	EnvAddr         = "CRACKEDOURA_ADDR"
	EnvLogLevel     = "CRACKEDOURA_LOG_LEVEL"
	EnvMaxOpenConns = "CRACKEDOURA_MAX_OPEN_CONNS"
)

// Config holds process settings.
type Config struct {
	DataDir      string // Empty means platform resolution
	Addr         string
	LogLevel     string
	MaxOpenConns int
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Addr:         httpapi.DefaultAddr,
		LogLevel:     "info",
		MaxOpenConns: storage.DefaultMaxOpenConns,
	}
}

// FromEnv overlays environment variables on Default.
func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

// Load overlays the variables returned by getenv on Default.
func Load(getenv func(string) string) (Config, error) {
	cfg := Default()
	if v := getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := getenv(EnvAddr); v != "" {
		cfg.Addr = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv(EnvMaxOpenConns); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("%s must be a positive integer, got %q", EnvMaxOpenConns, v)
		}
		cfg.MaxOpenConns = n
	}
	return cfg, nil
}
