package config

import (
	"os"
	"strconv"
	"time"
)

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// Config holds all runtime configuration, loaded from environment variables.
// The catalog itself lives in the station file.
type Config struct {
	// Server
	Port        int
	HTTPEnabled bool // serve streams and the API

	// Station
	StationFile        string
	Epoch              time.Time     // broadcast origin
	CheckpointInterval time.Duration // replay snapshot spacing, 0 disables

	// Outputs
	LocalPlayback bool   // play through the default sound device
	HistoryDB     string // as-run log path, empty disables

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json or console
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port:        envInt("RADIO_PORT", 8080),
		HTTPEnabled: envBool("RADIO_HTTP", true),

		StationFile:        envStr("RADIO_STATION_FILE", "./station/radio.yaml"),
		Epoch:              time.UnixMilli(int64(envInt("RADIO_EPOCH_MS", 10000))),
		CheckpointInterval: time.Duration(envInt("RADIO_CHECKPOINT_INTERVAL", 3600)) * time.Second,

		LocalPlayback: envBool("RADIO_LOCAL_PLAYBACK", false),
		HistoryDB:     envStr("RADIO_HISTORY_DB", ""),

		LogLevel:  envStr("RADIO_LOG_LEVEL", "info"),
		LogFormat: envStr("RADIO_LOG_FORMAT", "json"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
