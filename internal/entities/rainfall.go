package entities

import (
	"database/sql"
	"time"
)

// RainfallObservation is one row of the historical monthly rainfall log.
// The log is append-only, so the same station/month/year may appear more than once.
type RainfallObservation struct {
	Station    string
	Month      time.Month
	Year       int
	RainfallMm sql.NullFloat64
}

// LatestRainfallObservation is one row of the most recent rainfall scrape
type LatestRainfallObservation struct {
	Location     string
	Normal       sql.NullFloat64 // Normal rainfall for the month in mm
	Cumulative   sql.NullFloat64 // Cumulative rainfall observed so far in mm
	CurrentMonth time.Month
	CurrentYear  int
}
