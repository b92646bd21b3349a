package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.PublicURL)
	assert.Equal(t, 60, cfg.TickRate)
	assert.Equal(t, time.Minute, cfg.CreateCooldown)
	assert.Equal(t, 30*time.Second, cfg.HostGrace)
	assert.Equal(t, 2*time.Hour, cfg.RoomMaxAge)
	assert.Equal(t, 3, cfg.STTAttempts)
	assert.Equal(t, time.Second, cfg.STTBackoff)
	assert.Equal(t, 65536, cfg.MaxAudioFrame)
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9090\nHOST_GRACE=45s\nTICK_RATE=30\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("HOST_GRACE")
		os.Unsetenv("TICK_RATE")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.HostGrace)
	assert.Equal(t, 30, cfg.TickRate)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("CREATE_COOLDOWN", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "CREATE_COOLDOWN")

	t.Setenv("CREATE_COOLDOWN", "")
	t.Setenv("TICK_RATE", "0")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "TICK_RATE")
}
