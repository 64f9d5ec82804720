package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abelzeko/floodcast/internal/repository"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://www.ffwc.gov.bd/ffwc_charts/waterlevel.php", cfg.WaterLevelURL)
	assert.Equal(t, "http://www.ffwc.gov.bd/ffwc_charts/rainfall.php", cfg.RainfallURL)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, repository.BackendCSV, cfg.StoreBackend)
	assert.Equal(t, "data/water_levels.csv", cfg.WaterLevelCSV)
	assert.Equal(t, "data/water_levels.db", cfg.WaterLevelDB)
	assert.Equal(t, "data/latest_rainfall.csv", cfg.LatestRainfallCSV)
	assert.Equal(t, "data/monthly_rainfall.csv", cfg.MonthlyRainfallCSV)
	assert.Equal(t, "0 * * * *", cfg.ScrapeSchedule)
	assert.Equal(t, 90.0, cfg.ThresholdPercent)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Empty(t, cfg.MetricsAddr)
	assert.False(t, cfg.LogDebug)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WATER_LEVEL_URL", "http://localhost/wl")
	t.Setenv("RAINFALL_URL", "http://localhost/rf")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("WATER_LEVEL_DB", "/tmp/wl.db")
	t.Setenv("SCRAPE_SCHEDULE", "*/15 * * * *")
	t.Setenv("THRESHOLD_PERCENT", "75.5")
	t.Setenv("CACHE_TTL", "10m")
	t.Setenv("METRICS_ADDR", ":9100")
	t.Setenv("LOG_DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost/wl", cfg.WaterLevelURL)
	assert.Equal(t, "http://localhost/rf", cfg.RainfallURL)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, repository.BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "/tmp/wl.db", cfg.WaterLevelDB)
	assert.Equal(t, "*/15 * * * *", cfg.ScrapeSchedule)
	assert.Equal(t, 75.5, cfg.ThresholdPercent)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
	assert.True(t, cfg.LogDebug)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CACHE_TTL=2m\n"), 0644))
	// registers cleanup for the value godotenv sets
	t.Setenv("CACHE_TTL", "")
	os.Unsetenv("CACHE_TTL")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
}

func TestLoad_InvalidThreshold(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, v := range []string{"abc", "-1", "101"} {
		t.Setenv("THRESHOLD_PERCENT", v)
		_, err := Load()
		require.Error(t, err, v)
		assert.Contains(t, err.Error(), "THRESHOLD_PERCENT")
	}
}

func TestLoad_InvalidDurations(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FETCH_TIMEOUT", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")

	t.Setenv("FETCH_TIMEOUT", "30s")
	t.Setenv("CACHE_TTL", "-1m")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_TTL")
}

func TestLoad_InvalidBackend(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_BACKEND", "postgres")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_BACKEND")
}
