/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists the leaderboard and named grid specs. The valuation engine itself
  is stateless; everything kept across requests lives here.

INTERFACES IMPLEMENTED:
  leaderboard.Store: Leaderboard records

KEY TABLES:
  leaderboard:  One row per participant (unique on the normalized name)
  grid_specs:   Named sensitivity grid definitions (versioned on update)

NAME UNIQUENESS:
  leaderboard.name_key holds leaderboard.NameKey(name) under a UNIQUE index,
  so two concurrent submissions for the same participant cannot both land.

MONEY:
  Decimal fields are stored as TEXT (decimal.String()) and parsed back with
  shopspring/decimal, never through float64 columns.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened in WAL mode so
  readers don't block the single writer.

USAGE:
  store, err := sqlite.New("./data/valuation.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  board := leaderboard.NewBoard(store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - leaderboard/types.go: Store interface
  - leaderboard/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/valuation-engine/leaderboard"
	"github.com/warp/valuation-engine/valuation"
)

// createdLayout is fixed width so created_at sorts lexically.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements leaderboard.Store and the grid spec store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ leaderboard.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leaderboard (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		name_key TEXT NOT NULL,
		kind TEXT NOT NULL,
		calculation TEXT,
		input_value TEXT NOT NULL,
		result TEXT NOT NULL,
		periods INTEGER NOT NULL DEFAULT 0,
		rate TEXT NOT NULL,
		note TEXT,
		market_price TEXT,
		error TEXT,
		status TEXT,
		metadata_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_leaderboard_name_key
		ON leaderboard(name_key);
	CREATE INDEX IF NOT EXISTS idx_leaderboard_created_at
		ON leaderboard(created_at);

	CREATE TABLE IF NOT EXISTS grid_specs (
		name TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		spec_json TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEADERBOARD STORE
// =============================================================================

const leaderboardColumns = `id, name, kind, calculation, input_value, result, periods, rate, note,
	market_price, error, status, metadata_json, created_at`

// Save inserts a record. A second record with the same normalized name
// fails with leaderboard.ErrDuplicateName.
func (s *Store) Save(ctx context.Context, r leaderboard.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metaJSON sql.NullString
	if len(r.Metadata) > 0 {
		b, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metaJSON = sql.NullString{String: string(b), Valid: true}
	}

	var marketPrice, scoreErr, status sql.NullString
	if r.Score != nil {
		marketPrice = nullString(r.Score.MarketPrice.String())
		scoreErr = nullString(r.Score.Error.String())
		status = nullString(string(r.Score.Status))
	}

	query := `
		INSERT INTO leaderboard (id, name, name_key, kind, calculation, input_value, result,
			periods, rate, note, market_price, error, status, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Name, leaderboard.NameKey(r.Name), string(r.Kind), nullString(r.Calculation),
		r.InputValue.String(), r.Result.String(), r.Periods, r.Rate.String(), nullString(r.Note),
		marketPrice, scoreErr, status, metaJSON,
		r.CreatedAt.UTC().Format(createdLayout),
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: %s", leaderboard.ErrDuplicateName, r.Name)
	}
	return err
}

// List returns every record in submission order.
func (s *Store) List(ctx context.Context) ([]leaderboard.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+leaderboardColumns+" FROM leaderboard ORDER BY created_at, rowid",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []leaderboard.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// ExistsByName checks for a record under the normalized name.
func (s *Store) ExistsByName(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM leaderboard WHERE name_key = ?",
		leaderboard.NameKey(name),
	).Scan(&count)
	return count > 0, err
}

// Clear removes every leaderboard record.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM leaderboard")
	return err
}

func scanRecord(rows *sql.Rows) (leaderboard.Record, error) {
	var r leaderboard.Record
	var kind, inputValue, result, rate, createdAt string
	var calculation, note, marketPrice, scoreErr, status, metaJSON sql.NullString

	if err := rows.Scan(&r.ID, &r.Name, &kind, &calculation, &inputValue, &result, &r.Periods,
		&rate, &note, &marketPrice, &scoreErr, &status, &metaJSON, &createdAt); err != nil {
		return r, err
	}

	r.Kind = leaderboard.Kind(kind)
	r.Calculation = calculation.String
	r.Note = note.String
	r.InputValue = parseDecimal(inputValue)
	r.Result = parseDecimal(result)
	r.Rate = parseDecimal(rate)
	r.CreatedAt, _ = time.Parse(createdLayout, createdAt)

	if status.Valid {
		r.Score = &leaderboard.Score{
			MarketPrice: parseDecimal(marketPrice.String),
			Error:       parseDecimal(scoreErr.String),
			Status:      valuation.Status(status.String),
		}
	}
	if metaJSON.Valid && metaJSON.String != "" {
		if err := json.Unmarshal([]byte(metaJSON.String), &r.Metadata); err != nil {
			return r, fmt.Errorf("unmarshal metadata for %s: %w", r.ID, err)
		}
	}
	return r, nil
}

// =============================================================================
// GRID SPEC STORE
// =============================================================================

// GridSpecRecord is a named grid definition with its JSON body.
type GridSpecRecord struct {
	Name      string
	Model     string
	SpecJSON  string
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaveGridSpec inserts a spec or replaces it, bumping its version.
func (s *Store) SaveGridSpec(ctx context.Context, spec GridSpecRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO grid_specs (name, model, spec_json, version, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			model = excluded.model,
			spec_json = excluded.spec_json,
			version = grid_specs.version + 1,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query, spec.Name, spec.Model, spec.SpecJSON, now, now)
	return err
}

// GetGridSpec retrieves a spec by name. A missing spec returns (nil, nil).
func (s *Store) GetGridSpec(ctx context.Context, name string) (*GridSpecRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var g GridSpecRecord
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT name, model, spec_json, version, created_at, updated_at FROM grid_specs WHERE name = ?",
		name,
	).Scan(&g.Name, &g.Model, &g.SpecJSON, &g.Version, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	g.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &g, nil
}

// ListGridSpecs returns all specs ordered by name.
func (s *Store) ListGridSpecs(ctx context.Context) ([]GridSpecRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, model, spec_json, version, created_at, updated_at FROM grid_specs ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var specs []GridSpecRecord
	for rows.Next() {
		var g GridSpecRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&g.Name, &g.Model, &g.SpecJSON, &g.Version, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		g.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		specs = append(specs, g)
	}
	return specs, rows.Err()
}

// DeleteGridSpec removes a spec.
func (s *Store) DeleteGridSpec(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM grid_specs WHERE name = ?", name)
	return err
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
