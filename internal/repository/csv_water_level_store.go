package repository

import (
	"strings"

	"github.com/abelzeko/floodcast/internal/entities"
	"github.com/abelzeko/floodcast/internal/log"
	"github.com/abelzeko/floodcast/internal/normalize"
	"github.com/abelzeko/floodcast/internal/reconcile"
)

// CSVWaterLevelStore keeps the water level dataset in a CSV file with the
// columns Location, Danger Level and WL Observed
type CSVWaterLevelStore struct {
	Path string
}

// NewCSVWaterLevelStore creates a store backed by the file at path
func NewCSVWaterLevelStore(path string) *CSVWaterLevelStore {
	return &CSVWaterLevelStore{Path: path}
}

// Load reads the stored readings. A missing file is an empty store.
func (s *CSVWaterLevelStore) Load() ([]entities.StationReading, error) {
	table, ok, err := readCSV(s.Path, ColLocation, ColDangerLevel, ColWLObserved)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Infof("No water level store at %s yet, starting empty", s.Path)
		return []entities.StationReading{}, nil
	}

	readings := make([]entities.StationReading, 0, len(table.records))
	for i, record := range table.records {
		location := strings.TrimSpace(table.get(record, ColLocation))
		if location == "" {
			log.Warnf("Skipping stored row %d without a location", i+1)
			continue
		}
		readings = append(readings, entities.StationReading{
			Location:      location,
			DangerLevel:   normalize.ParseNumeric(table.get(record, ColDangerLevel)),
			ObservedLevel: normalize.ParseNumeric(table.get(record, ColWLObserved)),
		})
	}

	// One reading per location: a repeated location keeps its last row
	unique, _ := reconcile.Merge(nil, readings)
	if dropped := len(readings) - len(unique); dropped > 0 {
		log.Warnf("Collapsed %d repeated locations in %s", dropped, s.Path)
	}

	log.Debugf("Loaded %d water level readings from %s", len(unique), s.Path)
	return unique, nil
}

// Replace rewrites the whole file with readings
func (s *CSVWaterLevelStore) Replace(readings []entities.StationReading) error {
	records := make([][]string, 0, len(readings))
	for _, r := range readings {
		records = append(records, []string{
			r.Location,
			normalize.FormatNumeric(r.DangerLevel),
			normalize.FormatNumeric(r.ObservedLevel),
		})
	}

	if err := writeCSV(s.Path, []string{ColLocation, ColDangerLevel, ColWLObserved}, records); err != nil {
		return err
	}

	log.Infof("Successfully saved %d water level readings to %s", len(readings), s.Path)
	return nil
}

// Close is a no-op, the file is only open during Load and Replace
func (s *CSVWaterLevelStore) Close() error {
	return nil
}
