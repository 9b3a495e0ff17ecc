// Package configstore provides SQLite-backed storage for paleofed's
// declarative rows: vocabulary terms, time rules, and output block fields.
// This is deliberately outside the composite engine's own request path
// (§1 non-goal: the engine itself holds no persistent state); the query
// transform does not read it. The rows are seeded on Open and served
// read-only by the outer HTTP surface's declaration endpoints.
package configstore

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps a SQLite database connection with thread-safe operations.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// Open opens or creates a SQLite database at the given path, running
// pending migrations and seeding default rows on a fresh database.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	db := &DB{conn: conn}

	if err := db.runMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := db.seedDefaults(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to seed defaults: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) runMigrations() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	dbDriver, err := sqlite.WithInstance(db.conn, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Health checks database connectivity.
func (db *DB) Health() error {
	return db.conn.Ping()
}
