package database

// schemas maps database names to their schema definitions.
// Each schema is idempotent (CREATE TABLE IF NOT EXISTS only).
var schemas = map[string]string{
	"tracker":     trackerSchema,
	"client_data": clientDataSchema,
}

// trackerSchema holds the durable application state: the ownership hierarchy
// (users -> accounts -> assets, accounts also reference platforms), app
// settings, and the daily portfolio-value history.
const trackerSchema = `
CREATE TABLE IF NOT EXISTS users (
    user_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS platforms (
    platform_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS accounts (
    account_id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    platform_id INTEGER NOT NULL,
    account_type TEXT NOT NULL,
    account_name TEXT NOT NULL UNIQUE,
    cash_balance REAL DEFAULT 0.0,
    FOREIGN KEY (user_id) REFERENCES users (user_id) ON DELETE CASCADE,
    FOREIGN KEY (platform_id) REFERENCES platforms (platform_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS assets (
    asset_id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL,
    ticker_symbol TEXT NOT NULL,
    name TEXT,
    quantity REAL NOT NULL,
    average_cost REAL NOT NULL,
    total_invested REAL NOT NULL,
    current_price REAL,
    price_yesterday REAL,
    fifty_two_week_high REAL,
    fifty_two_week_low REAL,
    notes TEXT,
    FOREIGN KEY (account_id) REFERENCES accounts (account_id) ON DELETE CASCADE,
    UNIQUE(account_id, ticker_symbol)
);

CREATE TABLE IF NOT EXISTS app_settings (
    setting_key TEXT PRIMARY KEY,
    setting_value TEXT
);

CREATE TABLE IF NOT EXISTS portfolio_history (
    snapshot_date TEXT PRIMARY KEY, -- YYYY-MM-DD
    total_portfolio_value REAL NOT NULL
);
`

// clientDataSchema holds the ephemeral cache for market-data client
// responses. Rows are JSON blobs with expiration timestamps.
const clientDataSchema = `
CREATE TABLE IF NOT EXISTS quotes (
    symbol TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS exchange_rates (
    pair TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    expires_at INTEGER NOT NULL
);
`
