package usecases

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/abelzeko/floodcast/internal/entities"
	"github.com/abelzeko/floodcast/internal/integration/openai"
	"github.com/abelzeko/floodcast/internal/log"
	"github.com/abelzeko/floodcast/internal/normalize"
	"github.com/abelzeko/floodcast/internal/rainfall"
	"github.com/abelzeko/floodcast/internal/threshold"
)

// WaterLevelLoader reads the water level dataset
type WaterLevelLoader interface {
	Load() ([]entities.StationReading, error)
}

// RainfallHistoryLoader reads the historical rainfall log
type RainfallHistoryLoader interface {
	Load() ([]entities.RainfallObservation, error)
}

// LatestRainfallLoader reads the latest rainfall snapshot
type LatestRainfallLoader interface {
	Load() ([]entities.LatestRainfallObservation, error)
}

// snapshot is an immutable copy of all datasets, shared by every request until invalidated
type snapshot struct {
	readings []entities.StationReading
	history  []entities.RainfallObservation
	latest   []entities.LatestRainfallObservation
	loadedAt time.Time
}

// DashboardUseCase answers presentation queries from a cached snapshot of the datasets
type DashboardUseCase struct {
	water   WaterLevelLoader
	history RainfallHistoryLoader
	latest  LatestRainfallLoader
	agent   openai.OpenAIService
	clock   clockwork.Clock
	ttl     time.Duration

	mu   sync.Mutex
	snap *snapshot
}

// NewDashboardUseCase creates a new dashboard use case.
// ttl <= 0 keeps a snapshot until Invalidate is called. agent may be nil.
func NewDashboardUseCase(
	water WaterLevelLoader,
	history RainfallHistoryLoader,
	latest LatestRainfallLoader,
	agent openai.OpenAIService,
	clock clockwork.Clock,
	ttl time.Duration,
) *DashboardUseCase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &DashboardUseCase{
		water:   water,
		history: history,
		latest:  latest,
		agent:   agent,
		clock:   clock,
		ttl:     ttl,
	}
}

// Invalidate drops the cached snapshot so the next query reloads every dataset
func (uc *DashboardUseCase) Invalidate() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.snap = nil
	log.Info("Dashboard cache invalidated")
}

func (uc *DashboardUseCase) snapshot() (*snapshot, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.snap != nil && (uc.ttl <= 0 || uc.clock.Since(uc.snap.loadedAt) < uc.ttl) {
		return uc.snap, nil
	}

	readings, err := uc.water.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load water levels: %w", err)
	}
	history, err := uc.history.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load rainfall history: %w", err)
	}
	latest, err := uc.latest.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load latest rainfall: %w", err)
	}

	uc.snap = &snapshot{
		readings: readings,
		history:  history,
		latest:   latest,
		loadedAt: uc.clock.Now(),
	}
	log.Infof("Dashboard cache loaded: %d stations, %d rainfall observations, %d latest rainfall rows",
		len(readings), len(history), len(latest))
	return uc.snap, nil
}

// LastUpdate returns when the current snapshot was loaded
func (uc *DashboardUseCase) LastUpdate() (time.Time, error) {
	snap, err := uc.snapshot()
	if err != nil {
		return time.Time{}, err
	}
	return snap.loadedAt, nil
}

// DefaultMonth is the month shown when the user does not pick one
func (uc *DashboardUseCase) DefaultMonth() time.Month {
	return rainfall.PreviousMonth(uc.clock.Now())
}

// StationLevelsView is the water level table for a threshold and filter mode
type StationLevelsView struct {
	Percent    float64
	Mode       threshold.FilterMode
	Decisions  []entities.ThresholdDecision
	Total      int // stations in the dataset
	AlertCount int // alert stations in the dataset, whatever the mode
}

// StationLevels classifies every stored station against percent of its danger level
func (uc *DashboardUseCase) StationLevels(percent float64, mode threshold.FilterMode) (StationLevelsView, error) {
	snap, err := uc.snapshot()
	if err != nil {
		return StationLevelsView{}, err
	}

	all, err := threshold.Classify(snap.readings, percent, threshold.FilterAll)
	if err != nil {
		return StationLevelsView{}, err
	}
	decisions, err := threshold.Classify(snap.readings, percent, mode)
	if err != nil {
		return StationLevelsView{}, err
	}

	return StationLevelsView{
		Percent:    percent,
		Mode:       mode,
		Decisions:  decisions,
		Total:      len(all),
		AlertCount: threshold.CountAlerts(all),
	}, nil
}

// Station returns the stored reading for location
func (uc *DashboardUseCase) Station(location string) (entities.StationReading, bool, error) {
	snap, err := uc.snapshot()
	if err != nil {
		return entities.StationReading{}, false, err
	}
	for _, r := range snap.readings {
		if r.Location == location {
			return r, true, nil
		}
	}
	return entities.StationReading{}, false, nil
}

// RainfallSummaryView holds per-station maxima for a month and the peak station
type RainfallSummaryView struct {
	Month   time.Month
	Maxima  []rainfall.StationMax
	Peak    rainfall.StationMax
	HasPeak bool
	// Available lists every month the history has data for
	Available []time.Month
}

// RainfallSummary aggregates the historical log for month
func (uc *DashboardUseCase) RainfallSummary(month time.Month) (RainfallSummaryView, error) {
	snap, err := uc.snapshot()
	if err != nil {
		return RainfallSummaryView{}, err
	}
	maxima := rainfall.MaxByStation(snap.history, month)
	peak, ok := rainfall.PeakStation(maxima)
	return RainfallSummaryView{
		Month:     month,
		Maxima:    maxima,
		Peak:      peak,
		HasPeak:   ok,
		Available: rainfall.Months(snap.history),
	}, nil
}

// StationRainfall lists station's history for month, highest first
func (uc *DashboardUseCase) StationRainfall(month time.Month, station string) ([]rainfall.HistoryRow, error) {
	snap, err := uc.snapshot()
	if err != nil {
		return nil, err
	}
	return rainfall.StationHistory(snap.history, month, station), nil
}

// RainfallStations lists the stations with history for month
func (uc *DashboardUseCase) RainfallStations(month time.Month) ([]string, error) {
	snap, err := uc.snapshot()
	if err != nil {
		return nil, err
	}
	return rainfall.Stations(snap.history, month), nil
}

// ComparisonView is the latest cumulative rainfall of a station against its historic maximum
type ComparisonView struct {
	Station    string
	Month      time.Month
	Comparison rainfall.Comparison
	// Reason explains an incomputable comparison
	Reason string
}

// CompareRainfall compares the latest cumulative rainfall at station with its maximum for month.
// The latest scrape only counts when it was taken in the requested month.
func (uc *DashboardUseCase) CompareRainfall(station string, month time.Month) (ComparisonView, error) {
	snap, err := uc.snapshot()
	if err != nil {
		return ComparisonView{}, err
	}

	view := ComparisonView{Station: station, Month: month}
	historic := rainfall.HistoricMax(snap.history, month, station)

	var latest *entities.LatestRainfallObservation
	for i := range snap.latest {
		if snap.latest[i].Location == station {
			latest = &snap.latest[i]
			break
		}
	}

	var current sql.NullFloat64
	switch {
	case latest == nil:
		view.Reason = "no latest rainfall reading for this station"
	case latest.CurrentMonth != month:
		view.Reason = fmt.Sprintf("the latest rainfall reading is for %s %d", latest.CurrentMonth, latest.CurrentYear)
	case !latest.Cumulative.Valid:
		view.Reason = "the latest cumulative rainfall is missing"
	default:
		current = latest.Cumulative
	}
	if view.Reason == "" && !historic.Valid {
		view.Reason = fmt.Sprintf("no historical rainfall for %s", month)
	}

	view.Comparison = rainfall.Compare(current, historic)
	return view, nil
}

// KnownStations returns every station name in any dataset, sorted
func (uc *DashboardUseCase) KnownStations() ([]string, error) {
	snap, err := uc.snapshot()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, r := range snap.readings {
		seen[r.Location] = true
	}
	for _, o := range snap.history {
		seen[o.Station] = true
	}
	for _, o := range snap.latest {
		seen[o.Location] = true
	}
	stations := make([]string, 0, len(seen))
	for s := range seen {
		stations = append(stations, s)
	}
	sort.Strings(stations)
	return stations, nil
}

// HandleNaturalLanguageQuery interprets a user's free-text query using the AI service
// and returns an appropriate response string.
func (uc *DashboardUseCase) HandleNaturalLanguageQuery(ctx context.Context, query string, defaultPercent float64) (string, error) {
	if uc.agent == nil {
		return "I only understand commands. Use /help to see them.", nil
	}
	log.Infof("Interpreting natural language query: %s", query)

	stations, err := uc.KnownStations()
	if err != nil {
		log.Errorf("Error fetching known stations: %v", err)
		return "Sorry, I couldn't load the station list right now.", nil
	}

	agentResp, err := uc.agent.InterpretUserQuery(ctx, query, stations)
	if err != nil {
		log.Errorf("Error interpreting user query via OpenAI: %v", err)
		return "Sorry, I'm having trouble understanding right now. Please try again later or use /help.", nil
	}

	log.Infof("Agent response: Command='%s', Station='%s', Month='%s', Threshold=%v",
		agentResp.CommandName, agentResp.Station, agentResp.Month, agentResp.ThresholdPercent)

	percent := defaultPercent
	if agentResp.ThresholdGiven && threshold.ValidatePercent(agentResp.ThresholdPercent) == nil {
		percent = agentResp.ThresholdPercent
	}
	month := uc.DefaultMonth()
	if m, err := normalize.ParseMonth(agentResp.Month); err == nil {
		month = m
	}

	var body string
	switch agentResp.CommandName {
	case openai.CommandStationLevels:
		if agentResp.Station != "" {
			body, err = uc.StationReport(agentResp.Station, percent)
		} else {
			body, err = uc.LevelsReport(percent, threshold.FilterAll)
		}
	case openai.CommandAlerts:
		body, err = uc.LevelsReport(percent, threshold.FilterAlertOnly)
	case openai.CommandRainfallSummary:
		body, err = uc.RainfallReport(month)
	case openai.CommandCompareRainfall:
		if agentResp.Station == "" {
			return agentResp.UserMessage, nil
		}
		body, err = uc.ComparisonReport(agentResp.Station, month)
	case openai.CommandGeneralQuery:
		return agentResp.UserMessage, nil
	default:
		log.Warnf("Agent returned unexpected command: %s", agentResp.CommandName)
		return "I'm not sure how to respond to that. You can use /help for commands.", nil
	}
	if err != nil {
		log.Errorf("Error building response after agent interpretation: %v", err)
		return "Sorry, I couldn't fetch that data right now.", nil
	}

	if agentResp.UserMessage == "" {
		return body, nil
	}
	return agentResp.UserMessage + "\n\n" + strings.TrimSpace(body), nil
}
