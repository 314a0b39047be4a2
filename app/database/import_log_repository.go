package database

import (
	"database/sql"
	"fmt"
)

// ImportLogRepository handles database operations for the import log.
// The log is append-only from the pipeline's point of view: entries are only
// ever added after a confirmed load, and cleared out-of-band by operators
// to force a reimport.
type ImportLogRepository struct {
	db *DB
}

// NewImportLogRepository creates a new import log repository
func NewImportLogRepository(db *DB) *ImportLogRepository {
	return &ImportLogRepository{db: db}
}

// Contains reports whether a filename has been logged as imported
func (r *ImportLogRepository) Contains(filename string) (bool, error) {
	var one int
	err := r.db.QueryRow(`
		SELECT 1 FROM import_log WHERE filename = $1
	`, filename).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check import log: %w", err)
	}

	return true, nil
}

// Add records a filename as durably imported
func (r *ImportLogRepository) Add(filename string) error {
	_, err := r.db.Exec(`
		INSERT INTO import_log (filename)
		VALUES ($1)
		ON CONFLICT (filename) DO NOTHING
	`, filename)

	if err != nil {
		return fmt.Errorf("failed to add import log entry: %w", err)
	}

	return nil
}

// Count returns the total number of logged imports
func (r *ImportLogRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM import_log").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count import log entries: %w", err)
	}
	return count, nil
}

// ImportedOn returns the filenames logged for a given 8-digit date
func (r *ImportLogRepository) ImportedOn(date string) ([]string, error) {
	rows, err := r.db.Query(`
		SELECT filename FROM import_log
		WHERE filename LIKE '%' || $1 || '%'
		ORDER BY filename
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query import log by date: %w", err)
	}
	defer rows.Close()

	var filenames []string
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, fmt.Errorf("failed to scan import log row: %w", err)
		}
		filenames = append(filenames, filename)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import log rows: %w", err)
	}

	return filenames, nil
}
