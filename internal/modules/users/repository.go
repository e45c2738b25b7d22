// Package users manages user records. Users own accounts; deleting a user
// cascades to their accounts and assets.
package users

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Sentinel errors returned by the repository.
var (
	ErrNotFound      = errors.New("user not found")
	ErrDuplicateName = errors.New("user name already exists")
	ErrEmptyName     = errors.New("user name cannot be empty")
)

// User is a person whose holdings are tracked.
type User struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

// Repository handles user database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new users repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "users").Logger(),
	}
}

// List returns all users ordered by name.
func (r *Repository) List() ([]User, error) {
	rows, err := r.db.Query("SELECT user_id, name FROM users ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.UserID, &u.Name); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan user row")
			continue
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// GetByID returns a single user, or ErrNotFound.
func (r *Repository) GetByID(id int64) (*User, error) {
	var u User
	err := r.db.QueryRow("SELECT user_id, name FROM users WHERE user_id = ?", id).
		Scan(&u.UserID, &u.Name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &u, nil
}

// Create inserts a new user. Names are unique.
func (r *Repository) Create(name string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	result, err := r.db.Exec("INSERT INTO users (name) VALUES (?)", name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get new user id: %w", err)
	}

	r.log.Info().Int64("user_id", id).Str("name", name).Msg("Created user")
	return &User{UserID: id, Name: name}, nil
}

// Update renames a user.
func (r *Repository) Update(id int64, name string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	result, err := r.db.Exec("UPDATE users SET name = ? WHERE user_id = ?", name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update of user %d: %w", id, err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return &User{UserID: id, Name: name}, nil
}

// Delete removes a user. Accounts and assets under the user are removed by
// the foreign key cascade.
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM users WHERE user_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete of user %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	r.log.Info().Int64("user_id", id).Msg("Deleted user")
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
