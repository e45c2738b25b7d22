package assets

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Sentinel errors returned by the repository.
var (
	ErrNotFound        = errors.New("asset not found")
	ErrDuplicateTicker = errors.New("account already holds this ticker")
	ErrUnknownAccount  = errors.New("referenced account does not exist")
	ErrValidation      = errors.New("invalid asset")
)

// Repository handles asset database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new assets repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "assets").Logger(),
	}
}

const assetColumns = `asset_id, account_id, ticker_symbol, COALESCE(name, ''),
	quantity, average_cost, total_invested,
	current_price, price_yesterday, fifty_two_week_high, fifty_two_week_low,
	COALESCE(notes, '')`

func scanAsset(scanner interface{ Scan(...interface{}) error }) (*Asset, error) {
	var a Asset
	err := scanner.Scan(&a.AssetID, &a.AccountID, &a.TickerSymbol, &a.Name,
		&a.Quantity, &a.AverageCost, &a.TotalInvested,
		&a.CurrentPrice, &a.PriceYesterday, &a.FiftyTwoWeekHigh, &a.FiftyTwoWeekLow,
		&a.Notes)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID returns a single asset, or ErrNotFound.
func (r *Repository) GetByID(id int64) (*Asset, error) {
	row := r.db.QueryRow("SELECT "+assetColumns+" FROM assets WHERE asset_id = ?", id)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset %d: %w", id, err)
	}
	return a, nil
}

// ListByAccount returns all assets held by an account, ordered by ticker.
func (r *Repository) ListByAccount(accountID int64) ([]Asset, error) {
	rows, err := r.db.Query(
		"SELECT "+assetColumns+" FROM assets WHERE account_id = ? ORDER BY ticker_symbol", accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan asset row")
			continue
		}
		assets = append(assets, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	return assets, nil
}

// ListJoined returns every asset with its account, platform, and user
// context. This flat join is the aggregation engine's input.
func (r *Repository) ListJoined() ([]JoinedRow, error) {
	rows, err := r.db.Query(`
		SELECT s.asset_id, s.account_id, s.ticker_symbol, COALESCE(s.name, ''),
		       s.quantity, s.average_cost, s.total_invested,
		       s.current_price, s.price_yesterday, s.fifty_two_week_high, s.fifty_two_week_low,
		       COALESCE(s.notes, ''),
		       a.account_name, a.account_type, a.cash_balance,
		       p.platform_id, p.name,
		       u.user_id, u.name
		FROM assets s
		JOIN accounts a ON a.account_id = s.account_id
		JOIN platforms p ON p.platform_id = a.platform_id
		JOIN users u ON u.user_id = a.user_id
		ORDER BY u.name, p.name, a.account_name, s.ticker_symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list joined assets: %w", err)
	}
	defer rows.Close()

	var result []JoinedRow
	for rows.Next() {
		var jr JoinedRow
		err := rows.Scan(&jr.AssetID, &jr.AccountID, &jr.TickerSymbol, &jr.Asset.Name,
			&jr.Quantity, &jr.AverageCost, &jr.TotalInvested,
			&jr.CurrentPrice, &jr.PriceYesterday, &jr.FiftyTwoWeekHigh, &jr.FiftyTwoWeekLow,
			&jr.Notes,
			&jr.AccountName, &jr.AccountType, &jr.CashBalance,
			&jr.PlatformID, &jr.PlatformName,
			&jr.UserID, &jr.UserName)
		if err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan joined asset row")
			continue
		}
		result = append(result, jr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating joined assets: %w", err)
	}

	return result, nil
}

// Create inserts a new asset. Tickers are uppercased; an account may hold at
// most one record per ticker.
func (r *Repository) Create(a Asset) (*Asset, error) {
	if err := validate(&a); err != nil {
		return nil, err
	}

	result, err := r.db.Exec(`
		INSERT INTO assets (account_id, ticker_symbol, name, quantity, average_cost, total_invested,
		                    current_price, price_yesterday, fifty_two_week_high, fifty_two_week_low, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.AccountID, a.TickerSymbol, nullIfEmpty(a.Name), a.Quantity, a.AverageCost, a.TotalInvested,
		a.CurrentPrice, a.PriceYesterday, a.FiftyTwoWeekHigh, a.FiftyTwoWeekLow, nullIfEmpty(a.Notes))
	if err != nil {
		return nil, mapConstraintError(err, fmt.Errorf("failed to create asset: %w", err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get new asset id: %w", err)
	}
	a.AssetID = id

	r.log.Info().Int64("asset_id", id).Str("ticker", a.TickerSymbol).Msg("Created asset")
	return &a, nil
}

// Update modifies an asset's position fields. When the ticker changes the
// stored price fields are cleared, since they belong to the old symbol.
func (r *Repository) Update(a Asset) (*Asset, error) {
	if err := validate(&a); err != nil {
		return nil, err
	}

	existing, err := r.GetByID(a.AssetID)
	if err != nil {
		return nil, err
	}

	tickerChanged := existing.TickerSymbol != a.TickerSymbol
	if tickerChanged {
		a.CurrentPrice = nil
		a.PriceYesterday = nil
		a.FiftyTwoWeekHigh = nil
		a.FiftyTwoWeekLow = nil
	} else {
		a.CurrentPrice = existing.CurrentPrice
		a.PriceYesterday = existing.PriceYesterday
		a.FiftyTwoWeekHigh = existing.FiftyTwoWeekHigh
		a.FiftyTwoWeekLow = existing.FiftyTwoWeekLow
	}

	_, err = r.db.Exec(`
		UPDATE assets
		SET ticker_symbol = ?, name = ?, quantity = ?, average_cost = ?, total_invested = ?,
		    current_price = ?, price_yesterday = ?, fifty_two_week_high = ?, fifty_two_week_low = ?,
		    notes = ?
		WHERE asset_id = ?
	`, a.TickerSymbol, nullIfEmpty(a.Name), a.Quantity, a.AverageCost, a.TotalInvested,
		a.CurrentPrice, a.PriceYesterday, a.FiftyTwoWeekHigh, a.FiftyTwoWeekLow,
		nullIfEmpty(a.Notes), a.AssetID)
	if err != nil {
		return nil, mapConstraintError(err, fmt.Errorf("failed to update asset %d: %w", a.AssetID, err))
	}

	a.AccountID = existing.AccountID
	if tickerChanged {
		r.log.Info().Int64("asset_id", a.AssetID).
			Str("old_ticker", existing.TickerSymbol).Str("new_ticker", a.TickerSymbol).
			Msg("Ticker changed, cleared stored prices")
	}
	return &a, nil
}

// Delete removes an asset.
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM assets WHERE asset_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete asset %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete of asset %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	r.log.Info().Int64("asset_id", id).Msg("Deleted asset")
	return nil
}

// UniqueTickers returns the distinct tickers held across all accounts.
func (r *Repository) UniqueTickers() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT ticker_symbol FROM assets ORDER BY ticker_symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan ticker row")
			continue
		}
		tickers = append(tickers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickers: %w", err)
	}

	return tickers, nil
}

// PriceUpdate carries the market-data fields written during a refresh.
type PriceUpdate struct {
	CurrentPrice     *float64
	PriceYesterday   *float64
	FiftyTwoWeekHigh *float64
	FiftyTwoWeekLow  *float64
	Name             string
}

// UpdatePricesByTicker writes fresh market data to every asset holding the
// ticker. The display name is filled only where no name is stored yet.
func (r *Repository) UpdatePricesByTicker(ticker string, update PriceUpdate) error {
	_, err := r.db.Exec(`
		UPDATE assets
		SET current_price = ?, price_yesterday = ?, fifty_two_week_high = ?, fifty_two_week_low = ?,
		    name = CASE WHEN name IS NULL OR name = '' THEN ? ELSE name END
		WHERE ticker_symbol = ?
	`, update.CurrentPrice, update.PriceYesterday, update.FiftyTwoWeekHigh, update.FiftyTwoWeekLow,
		nullIfEmpty(update.Name), ticker)
	if err != nil {
		return fmt.Errorf("failed to update prices for %s: %w", ticker, err)
	}
	return nil
}

// validate trims and checks required fields, and uppercases the ticker.
func validate(a *Asset) error {
	a.TickerSymbol = strings.ToUpper(strings.TrimSpace(a.TickerSymbol))
	a.Name = strings.TrimSpace(a.Name)

	if a.TickerSymbol == "" {
		return fmt.Errorf("%w: ticker symbol cannot be empty", ErrValidation)
	}
	if a.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if a.AverageCost < 0 {
		return fmt.Errorf("%w: average cost cannot be negative", ErrValidation)
	}
	if a.TotalInvested < 0 {
		return fmt.Errorf("%w: total invested cannot be negative", ErrValidation)
	}
	return nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func mapConstraintError(err, fallback error) error {
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return ErrDuplicateTicker
	}
	if strings.Contains(msg, "FOREIGN KEY constraint failed") {
		return ErrUnknownAccount
	}
	return fallback
}
