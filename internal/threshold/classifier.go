// Package threshold classifies station readings against a percentage of their danger level
package threshold

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/abelzeko/floodcast/internal/entities"
)

// ErrPercentOutOfRange is returned for threshold percentages outside [0, 100]
var ErrPercentOutOfRange = errors.New("threshold percent must be between 0 and 100")

// FilterMode selects which decisions Classify returns
type FilterMode string

const (
	FilterAll       FilterMode = "all"
	FilterAlertOnly FilterMode = "alert-only"
)

// ParseFilterMode converts user input into a FilterMode
func ParseFilterMode(s string) (FilterMode, error) {
	switch FilterMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterAlertOnly, "alert", "alerts":
		return FilterAlertOnly, nil
	default:
		return "", fmt.Errorf("unknown filter mode %q", s)
	}
}

// ValidatePercent checks that percent is a usable threshold
func ValidatePercent(percent float64) error {
	if !(percent >= 0 && percent <= 100) {
		return fmt.Errorf("%w: got %v", ErrPercentOutOfRange, percent)
	}
	return nil
}

// Level returns percent of the danger level, invalid when the danger level is unknown
func Level(danger sql.NullFloat64, percent float64) sql.NullFloat64 {
	if !danger.Valid {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: percent * danger.Float64 / 100, Valid: true}
}

// IsAlert reports whether observed has reached percent of the danger level.
// The boundary is inclusive. Missing data is never an alert.
func IsAlert(observed, danger sql.NullFloat64, percent float64) bool {
	if !observed.Valid {
		return false
	}
	limit := Level(danger, percent)
	if !limit.Valid {
		return false
	}
	return observed.Float64 >= limit.Float64
}

// Classify evaluates every reading and keeps the ones selected by mode, in input order
func Classify(readings []entities.StationReading, percent float64, mode FilterMode) ([]entities.ThresholdDecision, error) {
	if err := ValidatePercent(percent); err != nil {
		return nil, err
	}
	if mode != FilterAll && mode != FilterAlertOnly {
		return nil, fmt.Errorf("unknown filter mode %q", mode)
	}

	decisions := make([]entities.ThresholdDecision, 0, len(readings))
	for _, r := range readings {
		d := entities.ThresholdDecision{
			Reading:        r,
			ThresholdLevel: Level(r.DangerLevel, percent),
			IsAlert:        IsAlert(r.ObservedLevel, r.DangerLevel, percent),
		}
		if mode == FilterAlertOnly && !d.IsAlert {
			continue
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}

// CountAlerts returns the number of alert decisions
func CountAlerts(decisions []entities.ThresholdDecision) int {
	n := 0
	for _, d := range decisions {
		if d.IsAlert {
			n++
		}
	}
	return n
}
