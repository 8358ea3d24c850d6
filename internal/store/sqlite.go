package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ ResultStore = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	id           TEXT PRIMARY KEY,
	ticker       TEXT NOT NULL,
	strategy     TEXT NOT NULL,
	start_date   TEXT NOT NULL,
	end_date     TEXT NOT NULL,
	total_return REAL NOT NULL,
	sharpe_ratio REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	win_rate     REAL NOT NULL,
	payload      BLOB NOT NULL,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_backtest_runs_created ON backtest_runs (created_at DESC);
`

// SQLiteStore implements ResultStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, creates the
// schema if needed and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveResult inserts a new run into the database.
func (s *SQLiteStore) SaveResult(ctx context.Context, rec *RunRecord) error {
	if rec.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("generating run id: %w", err)
		}
		rec.ID = id.String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO backtest_runs
			(id, ticker, strategy, start_date, end_date, total_return, sharpe_ratio, max_drawdown, win_rate, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Ticker, rec.Strategy, rec.StartDate, rec.EndDate,
		rec.TotalReturn, rec.SharpeRatio, rec.MaxDrawdown, rec.WinRate,
		rec.Payload, rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", rec.ID, err)
	}
	return nil
}

// GetResult retrieves a single run by its ID.
func (s *SQLiteStore) GetResult(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, ticker, strategy, start_date, end_date, total_return, sharpe_ratio, max_drawdown, win_rate, payload, created_at
		FROM backtest_runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting run %s: %w", id, err)
	}
	return rec, nil
}

// ListResults returns the most recent runs, newest first, up to limit.
func (s *SQLiteStore) ListResults(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticker, strategy, start_date, end_date, total_return, sharpe_ratio, max_drawdown, win_rate, payload, created_at
		FROM backtest_runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*RunRecord, error) {
	var (
		rec       RunRecord
		createdMs int64
	)
	err := sc.Scan(&rec.ID, &rec.Ticker, &rec.Strategy, &rec.StartDate, &rec.EndDate,
		&rec.TotalReturn, &rec.SharpeRatio, &rec.MaxDrawdown, &rec.WinRate,
		&rec.Payload, &createdMs)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	return &rec, nil
}
