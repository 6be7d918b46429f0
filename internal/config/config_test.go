package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8030", config.HTTPPort)
	assert.Equal(t, "sqlite", config.Database.Driver)
	assert.Equal(t, time.Second, config.Session.SaveDelay)
	assert.Equal(t, 128, config.Session.CacheSize)
	assert.Equal(t, 10*time.Minute, config.Jobs.BackupWindow)
	assert.Equal(t, "gzip", config.Compression)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("REDLINE_HTTP_PORT", "9000")
	t.Setenv("REDLINE_SESSION_SAVE_DELAY", "250ms")
	t.Setenv("REDLINE_DATABASE_DRIVER", "postgres")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", config.HTTPPort)
	assert.Equal(t, 250*time.Millisecond, config.Session.SaveDelay)
	assert.Equal(t, "postgres", config.Database.Driver)
}

func TestOpenDb_UnknownDriver(t *testing.T) {
	_, err := OpenDb(&Config{Database: DatabaseConfig{Driver: "oracle"}})
	assert.Error(t, err)
}
