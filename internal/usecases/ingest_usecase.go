// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/abelzeko/floodcast/internal/entities"
	"github.com/abelzeko/floodcast/internal/integration"
	"github.com/abelzeko/floodcast/internal/log"
	"github.com/abelzeko/floodcast/internal/normalize"
	"github.com/abelzeko/floodcast/internal/observability"
	"github.com/abelzeko/floodcast/internal/reconcile"
	"github.com/abelzeko/floodcast/internal/repository"
)

// Dataset labels used in logs and metrics
const (
	DatasetWaterLevel     = "water_level"
	DatasetLatestRainfall = "latest_rainfall"
)

// LatestRainfallWriter persists the latest rainfall snapshot
type LatestRainfallWriter interface {
	Replace(observations []entities.LatestRainfallObservation) error
}

// Sources are the pages the ingestion runs scrape
type Sources struct {
	WaterLevelURL string
	RainfallURL   string
}

// IngestReport summarises one ingestion run
type IngestReport struct {
	Dataset string
	Rows    int // data rows in the scraped table
	Parsed  int
	Skipped int
	Merge   reconcile.Stats // water level runs only
	Stored  int
}

// IngestUseCase runs fetch, normalize, merge and persist cycles.
// It holds no lock of its own: runs must not overlap.
type IngestUseCase struct {
	waterStore  repository.WaterLevelStore
	latestStore LatestRainfallWriter
	fetcher     integration.TableFetcher
	sources     Sources
	clock       clockwork.Clock
	metrics     *observability.Metrics
}

// NewIngestUseCase creates a new ingestion use case
func NewIngestUseCase(
	waterStore repository.WaterLevelStore,
	latestStore LatestRainfallWriter,
	fetcher integration.TableFetcher,
	sources Sources,
	clock clockwork.Clock,
	metrics *observability.Metrics,
) *IngestUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	return &IngestUseCase{
		waterStore:  waterStore,
		latestStore: latestStore,
		fetcher:     fetcher,
		sources:     sources,
		clock:       clock,
		metrics:     metrics,
	}
}

// RefreshWaterLevels scrapes the water level table and merges it into the store.
// A fetch failure returns before the store is touched.
func (uc *IngestUseCase) RefreshWaterLevels(ctx context.Context) (IngestReport, error) {
	log.Info("Starting water level refresh...")
	start := uc.clock.Now()
	report := IngestReport{Dataset: DatasetWaterLevel}

	rows, err := uc.fetcher.FetchTable(ctx, uc.sources.WaterLevelURL)
	if err != nil {
		uc.finish(report, "fetch_error", start)
		return report, fmt.Errorf("failed to fetch water levels: %w", err)
	}

	fresh, skipped := normalize.ParseStationRows(rows)
	report.Rows, report.Parsed, report.Skipped = len(rows), len(fresh), skipped

	prior, err := uc.waterStore.Load()
	if err != nil {
		uc.finish(report, "store_error", start)
		return report, fmt.Errorf("failed to load water level store: %w", err)
	}

	merged, stats := reconcile.Merge(prior, fresh)
	report.Merge = stats

	if err := uc.waterStore.Replace(merged); err != nil {
		uc.finish(report, "store_error", start)
		return report, fmt.Errorf("failed to save water level store: %w", err)
	}
	report.Stored = len(merged)

	log.Infof("Water level refresh done: %d rows, %d parsed, %d skipped, %d new, %d updated, %d retained",
		report.Rows, report.Parsed, report.Skipped, stats.Inserted, stats.Updated, stats.Retained)
	uc.finish(report, "success", start)
	return report, nil
}

// RefreshLatestRainfall scrapes the rainfall table and replaces the latest rainfall snapshot.
// Rows are stamped with the month and year of the run.
func (uc *IngestUseCase) RefreshLatestRainfall(ctx context.Context) (IngestReport, error) {
	log.Info("Starting latest rainfall refresh...")
	start := uc.clock.Now()
	report := IngestReport{Dataset: DatasetLatestRainfall}

	rows, err := uc.fetcher.FetchTable(ctx, uc.sources.RainfallURL)
	if err != nil {
		uc.finish(report, "fetch_error", start)
		return report, fmt.Errorf("failed to fetch rainfall: %w", err)
	}

	observations, skipped := normalize.ParseLatestRainfallRows(rows, start.Month(), start.Year())
	report.Rows, report.Parsed, report.Skipped = len(rows), len(observations), skipped

	if err := uc.latestStore.Replace(observations); err != nil {
		uc.finish(report, "store_error", start)
		return report, fmt.Errorf("failed to save latest rainfall: %w", err)
	}
	report.Stored = len(observations)

	log.Infof("Latest rainfall refresh done: %d rows, %d stored, %d skipped", report.Rows, report.Stored, report.Skipped)
	uc.finish(report, "success", start)
	return report, nil
}

// RefreshAll runs both refreshes. A failure in one does not stop the other.
func (uc *IngestUseCase) RefreshAll(ctx context.Context) error {
	var errs []error
	if _, err := uc.RefreshWaterLevels(ctx); err != nil {
		log.Errorf("Water level refresh failed: %v", err)
		errs = append(errs, err)
	}
	if _, err := uc.RefreshLatestRainfall(ctx); err != nil {
		log.Errorf("Latest rainfall refresh failed: %v", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (uc *IngestUseCase) finish(report IngestReport, outcome string, start time.Time) {
	elapsed := uc.clock.Since(start)
	log.Infow("Ingestion run finished", "dataset", report.Dataset, "outcome", outcome, "duration", elapsed)

	m := uc.metrics
	m.Runs.WithLabelValues(report.Dataset, outcome).Inc()
	m.RunDuration.WithLabelValues(report.Dataset).Observe(elapsed.Seconds())
	m.RowsParsed.WithLabelValues(report.Dataset).Add(float64(report.Parsed))
	m.RowsSkipped.WithLabelValues(report.Dataset).Add(float64(report.Skipped))
	if outcome == "success" {
		m.StoredRecords.WithLabelValues(report.Dataset).Set(float64(report.Stored))
		m.LastSuccess.WithLabelValues(report.Dataset).Set(float64(uc.clock.Now().Unix()))
	}
}
