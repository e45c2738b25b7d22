// Package accounts manages investment accounts. An account belongs to one
// user on one platform, carries a cash balance, and holds assets.
package accounts

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Sentinel errors returned by the repository.
var (
	ErrNotFound         = errors.New("account not found")
	ErrDuplicateName    = errors.New("account name already exists")
	ErrValidation       = errors.New("invalid account")
	ErrUnknownReference = errors.New("referenced user or platform does not exist")
)

// Account is an investment account held by a user on a platform.
type Account struct {
	AccountID   int64   `json:"account_id"`
	UserID      int64   `json:"user_id"`
	PlatformID  int64   `json:"platform_id"`
	AccountType string  `json:"account_type"`
	AccountName string  `json:"account_name"`
	CashBalance float64 `json:"cash_balance"`
}

// Detail is an account joined with its owner and platform names.
type Detail struct {
	Account
	UserName     string `json:"user_name"`
	PlatformName string `json:"platform_name"`
}

// Repository handles account database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new accounts repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "accounts").Logger(),
	}
}

// List returns all accounts joined with user and platform names,
// ordered by user then account name.
func (r *Repository) List() ([]Detail, error) {
	rows, err := r.db.Query(`
		SELECT a.account_id, a.user_id, a.platform_id, a.account_type,
		       a.account_name, a.cash_balance, u.name, p.name
		FROM accounts a
		JOIN users u ON u.user_id = a.user_id
		JOIN platforms p ON p.platform_id = a.platform_id
		ORDER BY u.name, a.account_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Detail
	for rows.Next() {
		var d Detail
		if err := rows.Scan(&d.AccountID, &d.UserID, &d.PlatformID, &d.AccountType,
			&d.AccountName, &d.CashBalance, &d.UserName, &d.PlatformName); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan account row")
			continue
		}
		accounts = append(accounts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// GetByID returns a single account, or ErrNotFound.
func (r *Repository) GetByID(id int64) (*Account, error) {
	var a Account
	err := r.db.QueryRow(`
		SELECT account_id, user_id, platform_id, account_type, account_name, cash_balance
		FROM accounts WHERE account_id = ?
	`, id).Scan(&a.AccountID, &a.UserID, &a.PlatformID, &a.AccountType, &a.AccountName, &a.CashBalance)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}
	return &a, nil
}

// Create inserts a new account. Account names are globally unique.
func (r *Repository) Create(a Account) (*Account, error) {
	if err := validate(&a); err != nil {
		return nil, err
	}

	result, err := r.db.Exec(`
		INSERT INTO accounts (user_id, platform_id, account_type, account_name, cash_balance)
		VALUES (?, ?, ?, ?, ?)
	`, a.UserID, a.PlatformID, a.AccountType, a.AccountName, a.CashBalance)
	if err != nil {
		return nil, mapConstraintError(err, fmt.Errorf("failed to create account: %w", err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get new account id: %w", err)
	}
	a.AccountID = id

	r.log.Info().Int64("account_id", id).Str("account_name", a.AccountName).Msg("Created account")
	return &a, nil
}

// Update modifies an existing account.
func (r *Repository) Update(a Account) (*Account, error) {
	if err := validate(&a); err != nil {
		return nil, err
	}

	result, err := r.db.Exec(`
		UPDATE accounts
		SET user_id = ?, platform_id = ?, account_type = ?, account_name = ?, cash_balance = ?
		WHERE account_id = ?
	`, a.UserID, a.PlatformID, a.AccountType, a.AccountName, a.CashBalance, a.AccountID)
	if err != nil {
		return nil, mapConstraintError(err, fmt.Errorf("failed to update account %d: %w", a.AccountID, err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check update of account %d: %w", a.AccountID, err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return &a, nil
}

// UpdateCashBalance sets only the cash balance of an account.
func (r *Repository) UpdateCashBalance(id int64, balance float64) error {
	result, err := r.db.Exec("UPDATE accounts SET cash_balance = ? WHERE account_id = ?", balance, id)
	if err != nil {
		return fmt.Errorf("failed to update cash balance of account %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check cash update of account %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an account and, via cascade, its assets.
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM accounts WHERE account_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete account %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete of account %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	r.log.Info().Int64("account_id", id).Msg("Deleted account")
	return nil
}

// validate trims and checks required fields.
func validate(a *Account) error {
	a.AccountName = strings.TrimSpace(a.AccountName)
	a.AccountType = strings.TrimSpace(a.AccountType)

	if a.AccountName == "" {
		return fmt.Errorf("%w: account name cannot be empty", ErrValidation)
	}
	if a.AccountType == "" {
		return fmt.Errorf("%w: account type cannot be empty", ErrValidation)
	}
	if a.UserID <= 0 || a.PlatformID <= 0 {
		return fmt.Errorf("%w: user and platform are required", ErrValidation)
	}
	return nil
}

// mapConstraintError turns SQLite constraint failures into sentinel errors.
func mapConstraintError(err, fallback error) error {
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return ErrDuplicateName
	}
	if strings.Contains(msg, "FOREIGN KEY constraint failed") {
		return ErrUnknownReference
	}
	return fallback
}
