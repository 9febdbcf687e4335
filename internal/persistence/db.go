// Package persistence provides SQLite-based storage for the generation log.
// Boards themselves are never stored; a seed and its parameters reproduce one.
package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for the generation log.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Check pings the database.
func (db *DB) Check(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS generations (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		players REAL NOT NULL,
		bonus INTEGER NOT NULL,
		gold INTEGER NOT NULL,
		tiles INTEGER NOT NULL,
		border_tiles INTEGER NOT NULL,
		rings INTEGER NOT NULL,
		balance_attempts INTEGER NOT NULL,
		placement_attempts INTEGER NOT NULL,
		duration_us INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_generations_created ON generations(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Generation is one row of the generation log.
type Generation struct {
	ID                string  `db:"id" json:"id"`
	Seed              int64   `db:"seed" json:"seed"`
	Players           float64 `db:"players" json:"players"`
	Bonus             bool    `db:"bonus" json:"bonus"`
	Gold              bool    `db:"gold" json:"gold"`
	Tiles             int     `db:"tiles" json:"tiles"`
	BorderTiles       int     `db:"border_tiles" json:"border_tiles"`
	Rings             int     `db:"rings" json:"rings"`
	BalanceAttempts   int     `db:"balance_attempts" json:"balance_attempts"`
	PlacementAttempts int     `db:"placement_attempts" json:"placement_attempts"`
	DurationMicros    int64   `db:"duration_us" json:"duration_us"`
	CreatedAtMillis   int64   `db:"created_at" json:"-"`
}

// CreatedAt returns the insertion time.
func (g Generation) CreatedAt() time.Time {
	return time.UnixMilli(g.CreatedAtMillis).UTC()
}

// RecordGeneration appends a generation to the log. An empty ID is filled
// with a fresh UUID; a zero timestamp with the current time. Returns the ID.
func (db *DB) RecordGeneration(ctx context.Context, g Generation) (string, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAtMillis == 0 {
		g.CreatedAtMillis = time.Now().UnixMilli()
	}

	_, err := db.conn.NamedExecContext(ctx, `INSERT INTO generations
		(id, seed, players, bonus, gold, tiles, border_tiles, rings,
		 balance_attempts, placement_attempts, duration_us, created_at)
		VALUES (:id, :seed, :players, :bonus, :gold, :tiles, :border_tiles, :rings,
		 :balance_attempts, :placement_attempts, :duration_us, :created_at)`, g)
	if err != nil {
		return "", fmt.Errorf("insert generation %s: %w", g.ID, err)
	}
	return g.ID, nil
}

// RecentGenerations returns the most recent N generations, newest first.
func (db *DB) RecentGenerations(ctx context.Context, limit int) ([]Generation, error) {
	var gens []Generation
	err := db.conn.SelectContext(ctx, &gens,
		"SELECT * FROM generations ORDER BY created_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	return gens, err
}

// Summary aggregates the generation log.
type Summary struct {
	Count                int64   `db:"count" json:"count"`
	AvgBalanceAttempts   float64 `db:"avg_balance_attempts" json:"avg_balance_attempts"`
	MaxBalanceAttempts   int64   `db:"max_balance_attempts" json:"max_balance_attempts"`
	AvgPlacementAttempts float64 `db:"avg_placement_attempts" json:"avg_placement_attempts"`
	AvgDurationMicros    float64 `db:"avg_duration_us" json:"avg_duration_us"`
}

// Summarize returns aggregate statistics over every logged generation.
func (db *DB) Summarize(ctx context.Context) (Summary, error) {
	var s Summary
	err := db.conn.GetContext(ctx, &s, `SELECT
		COUNT(*) AS count,
		COALESCE(AVG(balance_attempts), 0.0) AS avg_balance_attempts,
		COALESCE(MAX(balance_attempts), 0) AS max_balance_attempts,
		COALESCE(AVG(placement_attempts), 0.0) AS avg_placement_attempts,
		COALESCE(AVG(duration_us), 0.0) AS avg_duration_us
		FROM generations`)
	return s, err
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}

// MarkStarted records the server start time and logs the size of the log.
func (db *DB) MarkStarted(ctx context.Context, now time.Time) error {
	if err := db.SaveMeta("last_started", now.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	s, err := db.Summarize(ctx)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	slog.Info("generation log opened", "generations", s.Count)
	return nil
}
