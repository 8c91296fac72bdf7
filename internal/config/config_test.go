package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crackedoura/backend/internal/httpapi"
	"github.com/crackedoura/backend/internal/storage"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, "", cfg.DataDir)
	assert.Equal(t, httpapi.DefaultAddr, cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, storage.DefaultMaxOpenConns, cfg.MaxOpenConns)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(envMap(map[string]string{
		EnvDataDir:      "/var/lib/crackedoura",
		EnvAddr:         ":9000",
		EnvLogLevel:     "debug",
		EnvMaxOpenConns: "2",
	}))
	require.NoError(t, err)
	assert.Equal(t, Config{DataDir: "/var/lib/crackedoura", Addr: ":9000", LogLevel: "debug", MaxOpenConns: 2}, cfg)
}

func TestLoad_InvalidMaxOpenConns(t *testing.T) {
	for _, v := range []string{"zero", "0", "-3"} {
		_, err := Load(envMap(map[string]string{EnvMaxOpenConns: v}))
		assert.Error(t, err, v)
	}
}
