// Package config loads server settings from the environment, reading a .env
// file first when one exists.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the server
type Config struct {
	Port           string
	PublicURL      string
	Debug          bool
	LogFormat      string
	TickRate       int
	CreateCooldown time.Duration
	HostGrace      time.Duration
	RoomMaxAge     time.Duration
	STTAttempts    int
	STTBackoff     time.Duration
	MaxAudioFrame  int
}

// Load reads the given env files (default ".env") and then the environment.
// A missing env file is not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := Config{
		Port:      getString("PORT", "8080"),
		LogFormat: getString("LOG_FORMAT", "console"),
		Debug:     os.Getenv("DEBUG") != "",
	}
	cfg.PublicURL = getString("PUBLIC_URL", "http://localhost:"+cfg.Port)

	var err error
	if cfg.TickRate, err = getInt("TICK_RATE", 60); err != nil {
		return Config{}, err
	}
	if cfg.CreateCooldown, err = getDuration("CREATE_COOLDOWN", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.HostGrace, err = getDuration("HOST_GRACE", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RoomMaxAge, err = getDuration("ROOM_MAX_AGE", 2*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.STTAttempts, err = getInt("STT_ATTEMPTS", 3); err != nil {
		return Config{}, err
	}
	if cfg.STTBackoff, err = getDuration("STT_BACKOFF", time.Second); err != nil {
		return Config{}, err
	}
	if cfg.MaxAudioFrame, err = getInt("MAX_AUDIO_FRAME", 64<<10); err != nil {
		return Config{}, err
	}

	if cfg.TickRate <= 0 {
		return Config{}, fmt.Errorf("TICK_RATE must be positive, got %d", cfg.TickRate)
	}
	return cfg, nil
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
