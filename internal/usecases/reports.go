package usecases

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/abelzeko/floodcast/internal/entities"
	"github.com/abelzeko/floodcast/internal/rainfall"
	"github.com/abelzeko/floodcast/internal/threshold"
)

// CannotCompute is shown instead of a number when a comparison has a missing side
const CannotCompute = "cannot compute"

func formatLevel(v sql.NullFloat64, unit string) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f %s", v.Float64, unit)
}

func formatDecision(b *strings.Builder, d entities.ThresholdDecision) {
	marker := "🟢"
	if d.IsAlert {
		marker = "🔴"
	}
	b.WriteString(fmt.Sprintf("%s %s\n", marker, d.Reading.Location))
	b.WriteString(fmt.Sprintf("   💧 Observed: %s / ⚠️ Danger: %s\n",
		formatLevel(d.Reading.ObservedLevel, "m"), formatLevel(d.Reading.DangerLevel, "m")))
}

// LevelsReport formats the water level table for the given threshold and mode
func (uc *DashboardUseCase) LevelsReport(percent float64, mode threshold.FilterMode) (string, error) {
	view, err := uc.StationLevels(percent, mode)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Water levels at %g%% of danger level: %d of %d stations on alert.\n\n",
		view.Percent, view.AlertCount, view.Total))

	if len(view.Decisions) == 0 {
		if view.Mode == threshold.FilterAlertOnly {
			b.WriteString("No station has reached the threshold.\n")
		} else {
			b.WriteString("No water level data available yet.\n")
		}
	}
	for _, d := range view.Decisions {
		formatDecision(&b, d)
	}

	if lastUpdate, err := uc.LastUpdate(); err == nil {
		b.WriteString(fmt.Sprintf("\n🕒 Last update: %s", lastUpdate.Format("2006-01-02 15:04:05")))
	}
	return b.String(), nil
}

// StationReport formats a single station's water level
func (uc *DashboardUseCase) StationReport(location string, percent float64) (string, error) {
	reading, ok, err := uc.Station(location)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("No water level information found for '%s'.", location), nil
	}

	decisions, err := threshold.Classify([]entities.StationReading{reading}, percent, threshold.FilterAll)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	formatDecision(&b, decisions[0])
	level := decisions[0].ThresholdLevel
	if level.Valid {
		b.WriteString(fmt.Sprintf("   📊 Alert at %g%% of danger level: %.2f m\n", percent, level.Float64))
	} else {
		b.WriteString("   📊 Alert level " + CannotCompute + ": danger level unknown\n")
	}
	return b.String(), nil
}

// RainfallReport formats the per-station maximum rainfall for month
func (uc *DashboardUseCase) RainfallReport(month time.Month) (string, error) {
	view, err := uc.RainfallSummary(month)
	if err != nil {
		return "", err
	}
	if !view.HasPeak {
		if len(view.Available) == 0 {
			return fmt.Sprintf("No rainfall history for %s.", month), nil
		}
		names := make([]string, len(view.Available))
		for i, m := range view.Available {
			names[i] = m.String()
		}
		return fmt.Sprintf("No rainfall history for %s. Months with data: %s.", month, strings.Join(names, ", ")), nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Maximum rainfall by station in %s:\n\n", month))
	for _, m := range view.Maxima {
		marker := "▫️"
		if m.Station == view.Peak.Station {
			marker = "🔺"
		}
		b.WriteString(fmt.Sprintf("%s %s: %.1f mm\n", marker, m.Station, m.RainfallMm))
	}
	b.WriteString(fmt.Sprintf("\nHighest: %s with %.1f mm", view.Peak.Station, view.Peak.RainfallMm))
	return b.String(), nil
}

// StationRainfallReport formats one station's rainfall history for month
func (uc *DashboardUseCase) StationRainfallReport(month time.Month, station string) (string, error) {
	rows, err := uc.StationRainfall(month, station)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		stations, err := uc.RainfallStations(month)
		if err != nil {
			return "", err
		}
		if len(stations) == 0 {
			return fmt.Sprintf("No rainfall history for %s in %s.", station, month), nil
		}
		return fmt.Sprintf("No rainfall history for %s in %s. Stations with data: %s.",
			station, month, strings.Join(stations, ", ")), nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Rainfall data for %s at %s:\n\n", month, station))
	for _, r := range rows {
		marker := "  "
		if r.IsMax {
			marker = "🔺"
		}
		b.WriteString(fmt.Sprintf("%s %d: %s\n", marker, r.Year, formatLevel(r.RainfallMm, "mm")))
	}
	return b.String(), nil
}

// ComparisonReport formats the latest-versus-historic rainfall comparison
func (uc *DashboardUseCase) ComparisonReport(station string, month time.Month) (string, error) {
	view, err := uc.CompareRainfall(station, month)
	if err != nil {
		return "", err
	}

	c := view.Comparison
	if !c.Computable() {
		reason := view.Reason
		if reason == "" {
			reason = "data missing"
		}
		return fmt.Sprintf("Rainfall at %s in %s: %s (%s).", station, month, CannotCompute, reason), nil
	}

	switch c.Direction {
	case rainfall.Equal:
		return fmt.Sprintf("Rainfall at %s so far in %s (%.1f mm) equals the historical maximum.",
			station, month, c.Latest.Float64), nil
	default:
		return fmt.Sprintf("Rainfall at %s so far in %s is %.1f mm, %.1f mm %s than the historical maximum of %.1f mm.",
			station, month, c.Latest.Float64, c.Magnitude, c.Direction, c.HistoricMax.Float64), nil
	}
}
