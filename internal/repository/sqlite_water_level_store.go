package repository

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/abelzeko/floodcast/internal/entities"
	"github.com/abelzeko/floodcast/internal/log"
)

// SQLiteWaterLevelStore keeps the water level dataset in a SQLite table keyed by location
type SQLiteWaterLevelStore struct {
	db     *sql.DB
	DBPath string
}

// NewSQLiteWaterLevelStore opens (and creates if needed) the database at dbPath
func NewSQLiteWaterLevelStore(dbPath string) (*SQLiteWaterLevelStore, error) {
	if dbPath == "" {
		dbPath = filepath.Join("data", "water_levels.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	log.Infof("Opening database at %s", dbPath)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// position keeps the order readings were first stored in
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS water_levels (
		location TEXT PRIMARY KEY NOT NULL,
		danger_level REAL,
		wl_observed REAL,
		position INTEGER NOT NULL
	);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteWaterLevelStore{
		db:     db,
		DBPath: dbPath,
	}, nil
}

// Close closes the database connection
func (s *SQLiteWaterLevelStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load returns every stored reading in stored order
func (s *SQLiteWaterLevelStore) Load() ([]entities.StationReading, error) {
	rows, err := s.db.Query(`
		SELECT location, danger_level, wl_observed
		FROM water_levels
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query water levels: %w", err)
	}
	defer rows.Close()

	result := []entities.StationReading{}
	for rows.Next() {
		var r entities.StationReading
		if err := rows.Scan(&r.Location, &r.DangerLevel, &r.ObservedLevel); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return result, nil
}

// Replace swaps the table content for readings in a single transaction
func (s *SQLiteWaterLevelStore) Replace(readings []entities.StationReading) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM water_levels`); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear water levels: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO water_levels(location, danger_level, wl_observed, position)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(location) DO UPDATE SET
		danger_level=excluded.danger_level,
		wl_observed=excluded.wl_observed`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, r := range readings {
		if _, err := stmt.Exec(r.Location, r.DangerLevel, r.ObservedLevel, i); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert water level for %s: %w", r.Location, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Infof("Successfully saved %d water level readings to %s", len(readings), s.DBPath)
	return nil
}
