// Package history manages daily portfolio-value snapshots.
// At most one snapshot exists per calendar date; the first value recorded on
// a date is never altered.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Snapshot is a single end-of-day portfolio value.
type Snapshot struct {
	SnapshotDate        string  `json:"snapshot_date"` // YYYY-MM-DD
	TotalPortfolioValue float64 `json:"total_portfolio_value"`
}

// Repository handles portfolio_history database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new history repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "history").Logger(),
	}
}

// InsertIfAbsent records a snapshot for the date unless one already exists.
// Returns true when a new row was written.
func (r *Repository) InsertIfAbsent(date string, value float64) (bool, error) {
	result, err := r.db.Exec(`
		INSERT INTO portfolio_history (snapshot_date, total_portfolio_value)
		VALUES (?, ?)
		ON CONFLICT(snapshot_date) DO NOTHING
	`, date, value)
	if err != nil {
		return false, fmt.Errorf("failed to insert snapshot for %s: %w", date, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check snapshot insert for %s: %w", date, err)
	}

	if affected > 0 {
		r.log.Info().Str("date", date).Float64("value", value).Msg("Recorded portfolio snapshot")
	}
	return affected > 0, nil
}

// RecordToday snapshots today's portfolio value if not already recorded.
func (r *Repository) RecordToday(value float64) (bool, error) {
	return r.InsertIfAbsent(time.Now().Format("2006-01-02"), value)
}

// List returns all snapshots in chronological order.
func (r *Repository) List() ([]Snapshot, error) {
	rows, err := r.db.Query(`
		SELECT snapshot_date, total_portfolio_value
		FROM portfolio_history
		ORDER BY snapshot_date
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.SnapshotDate, &s.TotalPortfolioValue); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan snapshot row")
			continue
		}
		snapshots = append(snapshots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snapshots, nil
}
