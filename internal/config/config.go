// Package config loads runtime settings from the environment
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/abelzeko/floodcast/internal/repository"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	WaterLevelURL string
	RainfallURL   string
	FetchTimeout  time.Duration

	StoreBackend       string
	WaterLevelCSV      string
	WaterLevelDB       string
	LatestRainfallCSV  string
	MonthlyRainfallCSV string

	ScrapeSchedule   string
	ThresholdPercent float64
	CacheTTL         time.Duration

	MetricsAddr string
	LogDebug    bool

	TelegramBotToken string
	OpenAIAPIKey     string
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("CACHE_TTL", "1h")
	if err != nil {
		return nil, err
	}

	threshold, err := strconv.ParseFloat(envOrDefault("THRESHOLD_PERCENT", "90"), 64)
	if err != nil || threshold < 0 || threshold > 100 {
		return nil, errors.New("invalid THRESHOLD_PERCENT: must be a number between 0 and 100")
	}

	cfg := &Config{
		WaterLevelURL: envOrDefault("WATER_LEVEL_URL", "http://www.ffwc.gov.bd/ffwc_charts/waterlevel.php"),
		RainfallURL:   envOrDefault("RAINFALL_URL", "http://www.ffwc.gov.bd/ffwc_charts/rainfall.php"),
		FetchTimeout:  fetchTimeout,

		StoreBackend:       envOrDefault("STORE_BACKEND", repository.BackendCSV),
		WaterLevelCSV:      envOrDefault("WATER_LEVEL_CSV", "data/water_levels.csv"),
		WaterLevelDB:       envOrDefault("WATER_LEVEL_DB", "data/water_levels.db"),
		LatestRainfallCSV:  envOrDefault("LATEST_RAINFALL_CSV", "data/latest_rainfall.csv"),
		MonthlyRainfallCSV: envOrDefault("MONTHLY_RAINFALL_CSV", "data/monthly_rainfall.csv"),

		ScrapeSchedule:   envOrDefault("SCRAPE_SCHEDULE", "0 * * * *"),
		ThresholdPercent: threshold,
		CacheTTL:         cacheTTL,

		MetricsAddr: os.Getenv("METRICS_ADDR"),
		LogDebug:    os.Getenv("LOG_DEBUG") == "true",

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
	}

	if cfg.StoreBackend != repository.BackendCSV && cfg.StoreBackend != repository.BackendSQLite {
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: must be %q or %q", cfg.StoreBackend, repository.BackendCSV, repository.BackendSQLite)
	}
	if cfg.WaterLevelURL == "" || cfg.RainfallURL == "" {
		return nil, errors.New("WATER_LEVEL_URL and RAINFALL_URL must not be empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
