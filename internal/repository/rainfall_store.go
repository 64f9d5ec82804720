package repository

import (
	"strconv"
	"strings"
	"time"

	"github.com/abelzeko/floodcast/internal/entities"
	"github.com/abelzeko/floodcast/internal/log"
	"github.com/abelzeko/floodcast/internal/normalize"
)

// Historical rainfall columns
const (
	ColStation  = "Station"
	ColMonth    = "Month"
	ColYear     = "Year"
	ColRainfall = "Rainfall"
)

// Latest rainfall columns
const (
	ColNormal       = "Normal"
	ColCumulative   = "Cumulative"
	ColCurrentMonth = "Current Month"
	ColCurrentYear  = "Current Year"
)

// RainfallHistory reads the historical monthly rainfall log (Station, Month, Year, Rainfall)
type RainfallHistory struct {
	Path string
}

// NewRainfallHistory creates a reader for the CSV at path
func NewRainfallHistory(path string) *RainfallHistory {
	return &RainfallHistory{Path: path}
}

// Load returns every observation in file order. Rows with an unusable
// station, month or year are skipped; an unparseable rainfall value is kept as null.
func (h *RainfallHistory) Load() ([]entities.RainfallObservation, error) {
	table, ok, err := readCSV(h.Path, ColStation, ColMonth, ColYear, ColRainfall)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Warnf("Rainfall history %s does not exist", h.Path)
		return []entities.RainfallObservation{}, nil
	}

	observations := make([]entities.RainfallObservation, 0, len(table.records))
	skipped := 0
	for i, record := range table.records {
		station := strings.TrimSpace(table.get(record, ColStation))
		month, monthErr := strconv.Atoi(strings.TrimSpace(table.get(record, ColMonth)))
		year, yearErr := strconv.Atoi(strings.TrimSpace(table.get(record, ColYear)))
		if station == "" || monthErr != nil || month < 1 || month > 12 || yearErr != nil {
			log.Warnf("Skipping rainfall history row %d: %v", i+1, record)
			skipped++
			continue
		}
		observations = append(observations, entities.RainfallObservation{
			Station:    station,
			Month:      time.Month(month),
			Year:       year,
			RainfallMm: normalize.ParseNumeric(table.get(record, ColRainfall)),
		})
	}

	log.Infof("Loaded %d rainfall observations from %s (%d skipped)", len(observations), h.Path, skipped)
	return observations, nil
}

// LatestRainfallStore holds the most recent rainfall scrape. Every run replaces it in full.
type LatestRainfallStore struct {
	Path string
}

// NewLatestRainfallStore creates a store backed by the CSV at path
func NewLatestRainfallStore(path string) *LatestRainfallStore {
	return &LatestRainfallStore{Path: path}
}

// Load returns the stored snapshot, empty if no scrape has been stored yet
func (s *LatestRainfallStore) Load() ([]entities.LatestRainfallObservation, error) {
	table, ok, err := readCSV(s.Path, ColLocation, ColNormal, ColCumulative, ColCurrentMonth, ColCurrentYear)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []entities.LatestRainfallObservation{}, nil
	}

	observations := make([]entities.LatestRainfallObservation, 0, len(table.records))
	for i, record := range table.records {
		location := strings.TrimSpace(table.get(record, ColLocation))
		month, monthErr := normalize.ParseMonth(table.get(record, ColCurrentMonth))
		year, yearErr := strconv.Atoi(strings.TrimSpace(table.get(record, ColCurrentYear)))
		if location == "" || monthErr != nil || yearErr != nil {
			log.Warnf("Skipping latest rainfall row %d: %v", i+1, record)
			continue
		}
		observations = append(observations, entities.LatestRainfallObservation{
			Location:     location,
			Normal:       normalize.ParseNumeric(table.get(record, ColNormal)),
			Cumulative:   normalize.ParseNumeric(table.get(record, ColCumulative)),
			CurrentMonth: month,
			CurrentYear:  year,
		})
	}
	return observations, nil
}

// Replace overwrites the snapshot with observations
func (s *LatestRainfallStore) Replace(observations []entities.LatestRainfallObservation) error {
	records := make([][]string, 0, len(observations))
	for _, o := range observations {
		records = append(records, []string{
			o.Location,
			normalize.FormatNumeric(o.Normal),
			normalize.FormatNumeric(o.Cumulative),
			o.CurrentMonth.String(),
			strconv.Itoa(o.CurrentYear),
		})
	}

	header := []string{ColLocation, ColNormal, ColCumulative, ColCurrentMonth, ColCurrentYear}
	if err := writeCSV(s.Path, header, records); err != nil {
		return err
	}

	log.Infof("Successfully saved %d latest rainfall rows to %s", len(observations), s.Path)
	return nil
}
