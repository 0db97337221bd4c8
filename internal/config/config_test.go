package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "data/merit.db", cfg.Database.SQLitePath)
	assert.Equal(t, "data/session.json", cfg.Session.StateFile)
	assert.Equal(t, "MERIT", cfg.Market.Symbol)
	assert.Equal(t, 3*time.Second, cfg.MarketTimeout())
	assert.Len(t, cfg.Tiers, 5)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
log:
  level: debug
  format: json
tap:
  cost: 75
  base_rate: 0.12
draw:
  free_quota: 2
tiers:
  - {name: starter, min_balance: 0, fee_rate: 0.25, daily_limit: 100}
  - {name: whale, min_balance: 5000, fee_rate: -0.02, daily_limit: -1}
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, int64(75), cfg.TapConfig().Cost)
	assert.Equal(t, 0.12, cfg.TapConfig().BaseRate)
	assert.Equal(t, 2, cfg.DrawConfig().FreeQuota)
	require.NoError(t, cfg.Validate())

	tb := cfg.TierTable()
	require.Len(t, tb, 2)
	assert.Equal(t, "whale", tb[1].Name)
	assert.True(t, tb[1].Unlimited())
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o644))

	t.Setenv("MERIT_ADDR", ":7070")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr, "environment wins over the file")
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/tmp/x.db", cfg.Database.SQLitePath)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateCatchesBadValues(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	cfg.Tap.BaseRate = 1.5
	cfg.Draw.Cost = -1
	cfg.Tap.FreeMin = 10
	cfg.Tap.FreeMax = 5
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tap.base_rate")
	assert.Contains(t, err.Error(), "draw.cost")
	assert.Contains(t, err.Error(), "free_min")
}

func TestValidateTierTable(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	// First tier must open at zero so every balance maps somewhere.
	cfg.Tiers[0].MinBalance = 10
	assert.Error(t, cfg.Validate())
}

func TestTapConfigWindowMapping(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	cfg.Tap.TargetWindowMS = 2500
	assert.Equal(t, 2500*time.Millisecond, cfg.TapConfig().TargetWindow)
}
