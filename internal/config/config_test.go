package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, time.Second, cfg.EventCheckInterval)
	assert.Equal(t, 5*time.Second, cfg.SaveInterval)
	assert.Equal(t, 8*time.Hour, cfg.OfflineCap)
	assert.Equal(t, time.Minute, cfg.OfflineMinimum)
	assert.Equal(t, 0.5, cfg.OfflineEfficiency)
	assert.Equal(t, 0.02, cfg.EventGateChance)
	assert.Equal(t, "quiet-depths-save", cfg.SaveSlot)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DEPTHS_DB_PATH", "/tmp/x.db")
	t.Setenv("DEPTHS_SAVE_INTERVAL", "2s")
	t.Setenv("DEPTHS_OFFLINE_CAP", "1h")
	t.Setenv("DEPTHS_ACTIONS_PER_SECOND", "5.5")
	t.Setenv("DEPTHS_CLIENT_SEND_BUFFER", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, 2*time.Second, cfg.SaveInterval)
	assert.Equal(t, time.Hour, cfg.OfflineCap)
	assert.Equal(t, 5.5, cfg.ActionsPerSecond)
	assert.Equal(t, Default().ClientSendBuffer, cfg.ClientSendBuffer)
}

func TestFastProfile(t *testing.T) {
	t.Setenv("DEPTHS_PROFILE", "fast")
	cfg := FromEnv()
	assert.Equal(t, Fast().SaveInterval, cfg.SaveInterval)
	assert.Less(t, cfg.EventCheckInterval, time.Second)
}
