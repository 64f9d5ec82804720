// Package entities contains the core domain objects for the floodcast application
package entities

import (
	"database/sql"
)

// StationReading is the current water level record for one monitoring location.
// Location is the natural key; the Dataset Store holds exactly one reading per location.
type StationReading struct {
	Location      string          // Station name as published, case-sensitive
	DangerLevel   sql.NullFloat64 // Danger level in metres, invalid when unparseable
	ObservedLevel sql.NullFloat64 // Observed water level in metres, invalid when unparseable
}

// ThresholdDecision is the alert classification of a single reading
type ThresholdDecision struct {
	Reading        StationReading
	ThresholdLevel sql.NullFloat64 // percent of the danger level, invalid when danger level is unknown
	IsAlert        bool
}
