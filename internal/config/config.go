// Package config holds the runtime tunables of the Quiet Depths core:
// schedule periods, offline catch-up limits, storage and transport settings.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds tuned parameters for a session.
type Config struct {
	// Storage
	DBPath      string
	SaveSlot    string
	CatalogPath string // optional YAML override of the built-in tables

	// Transport
	ListenAddr       string
	ClientSendBuffer int
	ActionsPerSecond float64
	ActionBurst      int

	// Schedules
	EventCheckInterval time.Duration
	SaveInterval       time.Duration

	// Event engine
	EventGateChance float64 // outer gate rolled once per check while idle

	// Offline catch-up
	OfflineCap        time.Duration
	OfflineMinimum    time.Duration
	OfflineEfficiency float64

	// Journal
	JournalCapacity int
}

// Default returns the production defaults.
func Default() Config {
	return Config{
		DBPath:   "depths.db",
		SaveSlot: "quiet-depths-save",

		ListenAddr:       ":8080",
		ClientSendBuffer: 64,
		ActionsPerSecond: 20, // generous for fast clickers
		ActionBurst:      40,

		EventCheckInterval: time.Second,
		SaveInterval:       5 * time.Second,

		EventGateChance: 0.02,

		OfflineCap:        8 * time.Hour,
		OfflineMinimum:    time.Minute,
		OfflineEfficiency: 0.5,

		JournalCapacity: 512,
	}
}

// Fast returns short schedule periods for demos and integration tests.
func Fast() Config {
	cfg := Default()
	cfg.EventCheckInterval = 50 * time.Millisecond
	cfg.SaveInterval = 100 * time.Millisecond
	cfg.JournalCapacity = 64
	return cfg
}

// FromEnv loads configuration from DEPTHS_* environment variables.
// Falls back to defaults if variables are not set or malformed.
func FromEnv() Config {
	cfg := Default()
	if os.Getenv("DEPTHS_PROFILE") == "fast" {
		cfg = Fast()
	}

	if val := os.Getenv("DEPTHS_DB_PATH"); val != "" {
		cfg.DBPath = val
	}
	if val := os.Getenv("DEPTHS_SAVE_SLOT"); val != "" {
		cfg.SaveSlot = val
	}
	if val := os.Getenv("DEPTHS_CATALOG"); val != "" {
		cfg.CatalogPath = val
	}
	if val := os.Getenv("DEPTHS_LISTEN_ADDR"); val != "" {
		cfg.ListenAddr = val
	}
	if val := getEnvInt("DEPTHS_CLIENT_SEND_BUFFER"); val > 0 {
		cfg.ClientSendBuffer = val
	}
	if val := getEnvFloat("DEPTHS_ACTIONS_PER_SECOND"); val > 0 {
		cfg.ActionsPerSecond = val
	}
	if val := getEnvInt("DEPTHS_ACTION_BURST"); val > 0 {
		cfg.ActionBurst = val
	}
	if val := getEnvDuration("DEPTHS_EVENT_CHECK_INTERVAL"); val > 0 {
		cfg.EventCheckInterval = val
	}
	if val := getEnvDuration("DEPTHS_SAVE_INTERVAL"); val > 0 {
		cfg.SaveInterval = val
	}
	if val := getEnvDuration("DEPTHS_OFFLINE_CAP"); val > 0 {
		cfg.OfflineCap = val
	}
	if val := getEnvDuration("DEPTHS_OFFLINE_MIN"); val > 0 {
		cfg.OfflineMinimum = val
	}
	if val := getEnvInt("DEPTHS_JOURNAL_CAPACITY"); val > 0 {
		cfg.JournalCapacity = val
	}

	return cfg
}

func getEnvInt(key string) int {
	val, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return val
}

func getEnvFloat(key string) float64 {
	val, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return 0
	}
	return val
}

func getEnvDuration(key string) time.Duration {
	val, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return 0
	}
	return val
}
