package database

import "database/sql"

// Schema is the full DDL for the journal store. Production applies it through
// the versioned migrations under db/migrations; ApplySchema exists so tests
// can build an isolated store without a migrations directory. Keep the two in
// sync when the schema changes.
const Schema = `
CREATE TABLE IF NOT EXISTS trades (
    trade_id TEXT PRIMARY KEY,
    start_datetime TEXT NOT NULL,
    end_datetime TEXT,
    trade_type TEXT NOT NULL,
    asset TEXT NOT NULL,
    direction TEXT NOT NULL,
    timeframe TEXT NOT NULL,
    session TEXT NOT NULL,
    entry_candle_type TEXT,
    strategy_id TEXT,
    strategy_name TEXT,
    account_id TEXT,
    account_name TEXT,
    entry_price REAL NOT NULL,
    exit_price REAL,
    take_profit REAL,
    stop_loss REAL,
    lot_size REAL,
    amount_traded REAL,
    leverage REAL,
    trade_fees REAL,
    risk_percentage REAL,
    expected_risk_reward REAL,
    actual_risk_reward REAL,
    pnl REAL,
    sl_moved_to_breakeven INTEGER NOT NULL DEFAULT 0,
    increased_lot_size INTEGER NOT NULL DEFAULT 0,
    balance_before_trade REAL,
    balance_after_trade REAL,
    trend_multi_timeframe TEXT,
    entry_reason TEXT,
    exit_reason TEXT,
    notes TEXT,
    custom_fields TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_start_datetime ON trades(start_datetime);
CREATE INDEX IF NOT EXISTS idx_trades_account_id ON trades(account_id);
CREATE INDEX IF NOT EXISTS idx_trades_strategy_id ON trades(strategy_id);

CREATE TABLE IF NOT EXISTS trade_images (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    trade_id TEXT NOT NULL REFERENCES trades(trade_id) ON DELETE CASCADE,
    image_path TEXT NOT NULL,
    uploaded_at TEXT NOT NULL,
    position INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_trade_images_trade_id ON trade_images(trade_id);

CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    account_name TEXT NOT NULL COLLATE NOCASE UNIQUE,
    account_type TEXT NOT NULL,
    account_balance REAL,
    initial_balance REAL,
    custom_fields TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS strategies (
    id TEXT PRIMARY KEY,
    strategy_name TEXT NOT NULL COLLATE NOCASE UNIQUE,
    strategy_notes TEXT,
    custom_fields TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS strategy_images (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    strategy_id TEXT NOT NULL REFERENCES strategies(id) ON DELETE CASCADE,
    image_path TEXT NOT NULL,
    uploaded_at TEXT NOT NULL,
    position INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_strategy_images_strategy_id ON strategy_images(strategy_id);

CREATE TABLE IF NOT EXISTS tags (
    id TEXT PRIMARY KEY,
    tag_name TEXT NOT NULL COLLATE NOCASE UNIQUE,
    trade_ids TEXT NOT NULL DEFAULT '[]',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS dashboard_charts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    chart_type TEXT NOT NULL,
    features TEXT NOT NULL DEFAULT '[]',
    visible INTEGER NOT NULL DEFAULT 1,
    sort_order INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
`

// ApplySchema creates all tables and indexes on the given connection.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
