// Package platforms manages brokerage platform records (e.g. Questrade,
// Wealthsimple). Deleting a platform cascades to its accounts and assets.
package platforms

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Sentinel errors returned by the repository.
var (
	ErrNotFound      = errors.New("platform not found")
	ErrDuplicateName = errors.New("platform name already exists")
	ErrEmptyName     = errors.New("platform name cannot be empty")
)

// Platform is a brokerage or trading platform that hosts accounts.
type Platform struct {
	PlatformID int64  `json:"platform_id"`
	Name       string `json:"name"`
}

// Repository handles platform database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new platforms repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "platforms").Logger(),
	}
}

// List returns all platforms ordered by name.
func (r *Repository) List() ([]Platform, error) {
	rows, err := r.db.Query("SELECT platform_id, name FROM platforms ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list platforms: %w", err)
	}
	defer rows.Close()

	var platforms []Platform
	for rows.Next() {
		var p Platform
		if err := rows.Scan(&p.PlatformID, &p.Name); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan platform row")
			continue
		}
		platforms = append(platforms, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating platforms: %w", err)
	}

	return platforms, nil
}

// GetByID returns a single platform, or ErrNotFound.
func (r *Repository) GetByID(id int64) (*Platform, error) {
	var p Platform
	err := r.db.QueryRow("SELECT platform_id, name FROM platforms WHERE platform_id = ?", id).
		Scan(&p.PlatformID, &p.Name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get platform %d: %w", id, err)
	}
	return &p, nil
}

// Create inserts a new platform. Names are unique.
func (r *Repository) Create(name string) (*Platform, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	result, err := r.db.Exec("INSERT INTO platforms (name) VALUES (?)", name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create platform: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get new platform id: %w", err)
	}

	r.log.Info().Int64("platform_id", id).Str("name", name).Msg("Created platform")
	return &Platform{PlatformID: id, Name: name}, nil
}

// Update renames a platform.
func (r *Repository) Update(id int64, name string) (*Platform, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	result, err := r.db.Exec("UPDATE platforms SET name = ? WHERE platform_id = ?", name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to update platform %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update of platform %d: %w", id, err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return &Platform{PlatformID: id, Name: name}, nil
}

// Delete removes a platform and, via cascade, its accounts and assets.
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM platforms WHERE platform_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete platform %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete of platform %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	r.log.Info().Int64("platform_id", id).Msg("Deleted platform")
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
