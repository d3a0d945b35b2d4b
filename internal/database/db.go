// Package database wires the input-store persistence (netting-set
// definitions, counterparty info, collateral balances) to sqlite, following
// the connection-pool-with-pragmas pattern of the teacher's
// internal/database/db.go.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

// DB wraps the sqlite connection used by the repositories package.
type DB struct {
	conn *sql.DB
	path string
}

// New opens dbPath with the default pure-Go driver (modernc.org/sqlite,
// registered in driver_modernc.go), creating the parent directory and enabling
// WAL mode and foreign keys as the teacher's db.go does.
func New(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("database: create directory: %w", err)
	}

	conn, err := sql.Open(driverName, dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying *sql.DB, for repositories built outside this
// package.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Migrate applies the engine's input-store schema. Idempotent: CREATE TABLE
// IF NOT EXISTS, safe to call on every startup.
func (db *DB) Migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS netting_sets (
	counterparty              TEXT NOT NULL,
	agreement                 TEXT NOT NULL DEFAULT '',
	master_agreement_type     TEXT NOT NULL DEFAULT '',
	master_agreement_subtype  TEXT NOT NULL DEFAULT '',
	csa_active                INTEGER NOT NULL DEFAULT 0,
	csa_currency              TEXT NOT NULL DEFAULT '',
	threshold_rcv             REAL NOT NULL DEFAULT 0,
	mta_rcv                   REAL NOT NULL DEFAULT 0,
	ia_held                   REAL NOT NULL DEFAULT 0,
	mpor_weeks                INTEGER NOT NULL DEFAULT 2,
	calculate_im              INTEGER NOT NULL DEFAULT 1,
	calculate_vm              INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (counterparty, agreement, master_agreement_type, master_agreement_subtype)
);

CREATE TABLE IF NOT EXISTS counterparties (
	id             TEXT PRIMARY KEY,
	is_clearing_cp INTEGER NOT NULL DEFAULT 0,
	credit_quality TEXT NOT NULL DEFAULT 'NR',
	saccr_rw       REAL NOT NULL DEFAULT 1.0
);

CREATE TABLE IF NOT EXISTS collateral_balances (
	counterparty              TEXT NOT NULL,
	agreement                 TEXT NOT NULL DEFAULT '',
	master_agreement_type     TEXT NOT NULL DEFAULT '',
	master_agreement_subtype  TEXT NOT NULL DEFAULT '',
	source                    TEXT NOT NULL CHECK (source IN ('user', 'calculated')),
	currency                  TEXT NOT NULL,
	im                        REAL,
	vm                        REAL,
	PRIMARY KEY (counterparty, agreement, master_agreement_type, master_agreement_subtype, source)
);
`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}

// Begin starts a transaction.
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}
