// Package repository provides data access implementations
package repository

import (
	"errors"
	"fmt"

	"github.com/abelzeko/floodcast/internal/entities"
)

// ErrBadHeader is returned when a CSV file lacks a required column
var ErrBadHeader = errors.New("csv header is missing a required column")

// Water level store columns
const (
	ColLocation    = "Location"
	ColDangerLevel = "Danger Level"
	ColWLObserved  = "WL Observed"
)

// WaterLevelStore is the persisted water level dataset, one reading per location.
// Callers must not run two load/replace cycles concurrently.
type WaterLevelStore interface {
	// Load returns the stored readings in stored order, empty if nothing was stored yet
	Load() ([]entities.StationReading, error)
	// Replace overwrites the stored content with readings
	Replace(readings []entities.StationReading) error
	Close() error
}

// Store backends
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// OpenWaterLevelStore returns the store for backend
func OpenWaterLevelStore(backend, csvPath, dbPath string) (WaterLevelStore, error) {
	switch backend {
	case BackendCSV, "":
		return NewCSVWaterLevelStore(csvPath), nil
	case BackendSQLite:
		return NewSQLiteWaterLevelStore(dbPath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
