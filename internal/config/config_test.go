package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, DefaultDatabasePath, cfg.DatabasePath)
	assert.Len(t, cfg.Parks, 3)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("QUEUE_TIMES_API_BASE", "http://localhost:9999/parks")
	t.Setenv("WAIT_TIMES_DB", "/tmp/other.db")

	cfg := Load()

	assert.Equal(t, "http://localhost:9999/parks", cfg.APIBaseURL)
	assert.Equal(t, "/tmp/other.db", cfg.DatabasePath)
}

func TestParkName(t *testing.T) {
	cfg := Load()

	name, err := cfg.ParkName(334)
	require.NoError(t, err)
	assert.Equal(t, "Epic Universe", name)

	_, err = cfg.ParkName(12345)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownPark))
}
