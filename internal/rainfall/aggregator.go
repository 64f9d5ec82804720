// Package rainfall aggregates the historical monthly rainfall log
package rainfall

import (
	"database/sql"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/abelzeko/floodcast/internal/entities"
)

// StationMax is the highest rainfall a station recorded for a month across all years
type StationMax struct {
	Station    string
	RainfallMm float64
}

// MaxByStation returns the per-station maximum rainfall for month, sorted by station name.
// Null observations are ignored and stations without any valid value are left out.
func MaxByStation(observations []entities.RainfallObservation, month time.Month) []StationMax {
	values := make(map[string][]float64)
	for _, o := range observations {
		if o.Month != month || !o.RainfallMm.Valid {
			continue
		}
		values[o.Station] = append(values[o.Station], o.RainfallMm.Float64)
	}

	stations := make([]string, 0, len(values))
	for station := range values {
		stations = append(stations, station)
	}
	sort.Strings(stations)

	result := make([]StationMax, 0, len(stations))
	for _, station := range stations {
		result = append(result, StationMax{Station: station, RainfallMm: floats.Max(values[station])})
	}
	return result
}

// PeakStation returns the station with the highest maximum.
// On a tie the first station in the given order wins, which for MaxByStation
// output is the lexicographically smallest name.
func PeakStation(maxima []StationMax) (StationMax, bool) {
	if len(maxima) == 0 {
		return StationMax{}, false
	}
	values := make([]float64, len(maxima))
	for i, m := range maxima {
		values[i] = m.RainfallMm
	}
	return maxima[floats.MaxIdx(values)], true
}

// HistoricMax returns the highest valid rainfall recorded by station in month
func HistoricMax(observations []entities.RainfallObservation, month time.Month, station string) sql.NullFloat64 {
	maxima := MaxByStation(filterStation(observations, station), month)
	if len(maxima) == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: maxima[0].RainfallMm, Valid: true}
}

func filterStation(observations []entities.RainfallObservation, station string) []entities.RainfallObservation {
	var out []entities.RainfallObservation
	for _, o := range observations {
		if o.Station == station {
			out = append(out, o)
		}
	}
	return out
}

// HistoryRow is one observation in a station history, IsMax marks the top row
type HistoryRow struct {
	entities.RainfallObservation
	IsMax bool
}

// StationHistory lists station's observations for month, highest rainfall first.
// Null values sort last and equal values are ordered by year, newest first.
func StationHistory(observations []entities.RainfallObservation, month time.Month, station string) []HistoryRow {
	var rows []HistoryRow
	for _, o := range observations {
		if o.Month == month && o.Station == station {
			rows = append(rows, HistoryRow{RainfallObservation: o})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].RainfallMm, rows[j].RainfallMm
		if a.Valid != b.Valid {
			return a.Valid
		}
		if a.Valid && a.Float64 != b.Float64 {
			return a.Float64 > b.Float64
		}
		return rows[i].Year > rows[j].Year
	})

	if len(rows) > 0 && rows[0].RainfallMm.Valid {
		rows[0].IsMax = true
	}
	return rows
}

// Stations lists the distinct stations that have any observation for month, sorted by name
func Stations(observations []entities.RainfallObservation, month time.Month) []string {
	seen := make(map[string]bool)
	var stations []string
	for _, o := range observations {
		if o.Month == month && !seen[o.Station] {
			seen[o.Station] = true
			stations = append(stations, o.Station)
		}
	}
	sort.Strings(stations)
	return stations
}

// Months lists the distinct months present in the log in calendar order
func Months(observations []entities.RainfallObservation) []time.Month {
	var present [13]bool
	for _, o := range observations {
		if o.Month >= time.January && o.Month <= time.December {
			present[o.Month] = true
		}
	}
	var months []time.Month
	for m := time.January; m <= time.December; m++ {
		if present[m] {
			months = append(months, m)
		}
	}
	return months
}

// PreviousMonth is the month before now, the default month shown to users
func PreviousMonth(now time.Time) time.Month {
	if now.Month() == time.January {
		return time.December
	}
	return now.Month() - 1
}

// Direction of the latest rainfall relative to the historic maximum
type Direction int

const (
	Incomputable Direction = iota
	Higher
	Lower
	Equal
)

func (d Direction) String() string {
	switch d {
	case Higher:
		return "higher"
	case Lower:
		return "lower"
	case Equal:
		return "equal"
	default:
		return "incomputable"
	}
}

// Comparison of the latest cumulative rainfall against the historic maximum
type Comparison struct {
	Latest      sql.NullFloat64
	HistoricMax sql.NullFloat64
	Direction   Direction
	Magnitude   float64 // absolute difference, zero when incomputable
}

// Computable reports whether both sides were known
func (c Comparison) Computable() bool {
	return c.Direction != Incomputable
}

// Compare returns how latest relates to historicMax
func Compare(latest, historicMax sql.NullFloat64) Comparison {
	c := Comparison{Latest: latest, HistoricMax: historicMax}
	if !latest.Valid || !historicMax.Valid {
		return c
	}

	diff := latest.Float64 - historicMax.Float64
	switch {
	case diff > 0:
		c.Direction = Higher
	case diff < 0:
		c.Direction = Lower
	default:
		c.Direction = Equal
	}
	c.Magnitude = math.Abs(diff)
	return c
}
