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
	cfg, err := Load(t.TempDir()) // no config.yaml present
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.Store.URL)
	assert.Equal(t, 2*time.Second, cfg.Scan.Window)
	assert.Equal(t, -70, cfg.Scan.RSSIThreshold)
	assert.Equal(t, 0.01, cfg.Reconcile.Proximity)
	assert.Equal(t, 30*time.Minute, cfg.Reconcile.Staleness)
	assert.Equal(t, time.Minute, cfg.Reconcile.JanitorInterval)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
store:
  url: https://crowd.example.com
  api_key: sekrit
scan:
  window: 5s
  rssi_threshold: -80
  default_lat: -23.55
  default_lon: -46.63
reconcile:
  staleness: 10m
server:
  port: 9999
  api_keys:
    - sekrit
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://crowd.example.com", cfg.Store.URL)
	assert.Equal(t, "sekrit", cfg.Store.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Scan.Window)
	assert.Equal(t, -80, cfg.Scan.RSSIThreshold)
	assert.Equal(t, -23.55, cfg.Scan.DefaultLat)
	assert.Equal(t, 10*time.Minute, cfg.Reconcile.Staleness)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, []string{"sekrit"}, cfg.Server.APIKeys)

	// Anything the file leaves out keeps its default.
	assert.Equal(t, 0.01, cfg.Reconcile.Proximity)
}

func TestLoadBadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{{nope"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}
