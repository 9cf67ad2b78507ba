package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigLayersFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
clock:
  tick_interval: 500ms
nats:
  consumer:
    consumer_name: room-a
draft_defaults:
  max_queue_depth: 5
`)
	t.Setenv("AUTH_SECRET", "s3cret")
	t.Setenv("PORT", "7070")

	config, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", config.Server.Port)
	assert.Equal(t, 500*time.Millisecond, config.Clock.TickInterval)
	assert.Equal(t, 15*time.Second, config.Clock.SweepInterval)
	assert.Equal(t, "room-a", config.NATS.Consumer.ConsumerName)
	assert.Equal(t, "DRAFT_EVENTS", config.NATS.Stream.StreamName)
	assert.Equal(t, storeDriverMemory, config.Store.Driver)

	// unset draft defaults keep their built-in values
	assert.Equal(t, 5, config.DraftDefaults.MaxQueueDepth)
	assert.Equal(t, models.DefaultDraftConfiguration().CatchUpWindow, config.DraftDefaults.CatchUpWindow)
}

func TestLoadConfigWithoutFile(t *testing.T) {
	t.Setenv("AUTH_SECRET", "s3cret")

	config, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", config.Server.Port)
	assert.Equal(t, "bbdraft", config.Auth.Issuer)
}

func TestLoadConfigRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{"missing secret", "", nil},
		{"unknown driver", "", map[string]string{"AUTH_SECRET": "x", "STORE_DRIVER": "sqlite"}},
		{"postgres without nats", "", map[string]string{"AUTH_SECRET": "x", "STORE_DRIVER": "postgres"}},
		{"bad draft defaults", "draft_defaults:\n  clock_behavior: sometimes\n", map[string]string{"AUTH_SECRET": "x"}},
		{"malformed yaml", "server: [", map[string]string{"AUTH_SECRET": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AUTH_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := loadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
