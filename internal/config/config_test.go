package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "trips.db", cfg.Store.DatabaseURL)
	assert.InDelta(t, 25.0, cfg.Vehicle.RatedMPG, 0.001)
	assert.InDelta(t, 3.50, cfg.Vehicle.FuelPricePerGallon, 0.001)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Vision.Model)
	assert.Equal(t, 1024, cfg.Vision.MaxTokens)
	assert.InDelta(t, 2.0, cfg.Vision.RequestsPerSecond, 0.001)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrent)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/trips
vehicle:
  rated_mpg: 32
  fuel_price_per_gallon: 4.10
server:
  port: 9090
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/trips", cfg.Store.DatabaseURL)
	assert.InDelta(t, 32.0, cfg.Vehicle.RatedMPG, 0.001)
	assert.InDelta(t, 4.10, cfg.Vehicle.FuelPricePerGallon, 0.001)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Untouched keys keep their defaults.
	assert.Equal(t, 4, cfg.Batch.MaxConcurrent)
}

func TestLoadFromEnv(t *testing.T) {
	chTempDir(t)

	t.Setenv("TRIPS_STORE_DRIVER", "postgres")
	t.Setenv("TRIPS_VISION_KEY", "sk-test")
	t.Setenv("TRIPS_VEHICLE_RATED_MPG", "18.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "sk-test", cfg.Vision.Key)
	assert.InDelta(t, 18.5, cfg.Vehicle.RatedMPG, 0.001)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))

	err := InitLogger(LogConfig{Level: "loud", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
