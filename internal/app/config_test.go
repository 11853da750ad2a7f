package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  http-port: \":9100\"\nuser:\n  register-is-enable: false\n"), 0644))

	cfg, realpath, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, file, realpath)
	assert.Equal(t, ":9100", cfg.Server.HttpPort)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.False(t, cfg.User.RegisterIsEnable)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 10, cfg.App.HistoryKeepVersions)
	assert.Equal(t, []string{"*"}, cfg.Server.CorsAllowOrigins)
	assert.Equal(t, 7*24*time.Hour, cfg.GetTokenExpiry())
	assert.Equal(t, 60*time.Second, cfg.GetContextTimeout())
	assert.Equal(t, 3*time.Second, cfg.GetAuthRateInterval())

	wq := cfg.GetWriteQueueConfig()
	assert.Equal(t, 100, wq.QueueCapacity)
	assert.Equal(t, 30*time.Second, wq.WriteTimeout)
	assert.Equal(t, 10*time.Minute, wq.IdleTimeout)

	dc := cfg.DaoConfig()
	assert.Equal(t, cfg.Database.Path, dc.Path)
	assert.Equal(t, cfg.Server.RunMode, dc.RunMode)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("{}\n"), 0644))

	cfg, _, err := LoadConfig(file)
	require.NoError(t, err)
	cfg.Security.TokenExpiry = "12h"
	require.NoError(t, cfg.Save())

	again, _, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, again.GetTokenExpiry())
}
