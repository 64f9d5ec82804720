// Package normalize turns raw scraped table cells into typed records.
//
// The upstream tables are third-party HTML with blank cells, footnote markers
// and stray whitespace, so nothing here aborts on bad input: unparseable
// numbers become invalid sql.NullFloat64 values and short rows are reported
// with ErrRowShape so the caller can skip them.
package normalize

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/abelzeko/floodcast/internal/entities"
	"github.com/abelzeko/floodcast/internal/log"
)

// ErrRowShape is returned for rows that cannot be ingested as a whole
var ErrRowShape = errors.New("row has unexpected shape")

// Water level table layout
const (
	stationLocationCol = 1
	stationDangerCol   = 2
	stationObservedCol = 4
	stationMinCells    = stationObservedCol + 1
)

// Rainfall table layout
const (
	rainfallLocationCol   = 0
	rainfallNormalCol     = 1
	rainfallCumulativeCol = 2
	rainfallMinCells      = rainfallCumulativeCol + 1
)

// ParseNumeric converts a raw cell to a number.
// Anything that is not a finite float yields an invalid value.
func ParseNumeric(raw string) sql.NullFloat64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// ParseStationRow builds a StationReading from a water level table row
func ParseStationRow(cells []string) (entities.StationReading, error) {
	if len(cells) < stationMinCells {
		return entities.StationReading{}, fmt.Errorf("%w: got %d cells, need %d", ErrRowShape, len(cells), stationMinCells)
	}

	location := strings.TrimSpace(cells[stationLocationCol])
	if location == "" {
		return entities.StationReading{}, fmt.Errorf("%w: empty location", ErrRowShape)
	}

	return entities.StationReading{
		Location:      location,
		DangerLevel:   ParseNumeric(cells[stationDangerCol]),
		ObservedLevel: ParseNumeric(cells[stationObservedCol]),
	}, nil
}

// ParseStationRows parses every row, skipping the ones with a bad shape.
// It returns the readings in table order and the number of skipped rows.
func ParseStationRows(rows [][]string) ([]entities.StationReading, int) {
	readings := make([]entities.StationReading, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		reading, err := ParseStationRow(row)
		if err != nil {
			log.Warnf("Skipping water level row %d: %v", i, err)
			skipped++
			continue
		}
		readings = append(readings, reading)
	}
	return readings, skipped
}

// ParseLatestRainfallRow builds a LatestRainfallObservation stamped with the scrape month and year
func ParseLatestRainfallRow(cells []string, month time.Month, year int) (entities.LatestRainfallObservation, error) {
	if len(cells) < rainfallMinCells {
		return entities.LatestRainfallObservation{}, fmt.Errorf("%w: got %d cells, need %d", ErrRowShape, len(cells), rainfallMinCells)
	}

	location := strings.TrimSpace(cells[rainfallLocationCol])
	if location == "" {
		return entities.LatestRainfallObservation{}, fmt.Errorf("%w: empty location", ErrRowShape)
	}

	return entities.LatestRainfallObservation{
		Location:     location,
		Normal:       ParseNumeric(cells[rainfallNormalCol]),
		Cumulative:   ParseNumeric(cells[rainfallCumulativeCol]),
		CurrentMonth: month,
		CurrentYear:  year,
	}, nil
}

// ParseLatestRainfallRows parses a rainfall table, skipping rows with a bad shape
func ParseLatestRainfallRows(rows [][]string, month time.Month, year int) ([]entities.LatestRainfallObservation, int) {
	observations := make([]entities.LatestRainfallObservation, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		obs, err := ParseLatestRainfallRow(row, month, year)
		if err != nil {
			log.Warnf("Skipping rainfall row %d: %v", i, err)
			skipped++
			continue
		}
		observations = append(observations, obs)
	}
	return observations, skipped
}

// FormatNumeric renders a nullable number the way the CSV files store it
func FormatNumeric(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}

// ParseMonth accepts a month number (1-12), a full English name or a three letter abbreviation
func ParseMonth(raw string) (time.Month, error) {
	s := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("month %d out of range", n)
		}
		return time.Month(n), nil
	}
	for m := time.January; m <= time.December; m++ {
		name := m.String()
		if strings.EqualFold(s, name) || strings.EqualFold(s, name[:3]) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown month %q", raw)
}
