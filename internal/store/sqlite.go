package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"sideways-trend/internal/errors"
	"sideways-trend/internal/models"
	"sideways-trend/pkg/utils"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	mu    sync.Mutex // serializes writers
	retry utils.RetryConfig
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, dbError("failed to open database", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	retry := utils.DefaultRetryConfig()
	retry.Retryable = isBusy

	store := &SQLiteStore{
		db:    db,
		retry: retry,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, dbError("failed to initialize schema", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- One row per imported price series
	CREATE TABLE IF NOT EXISTS series (
		symbol TEXT PRIMARY KEY,
		source TEXT,
		scale INTEGER NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Closing prices in minor units
	CREATE TABLE IF NOT EXISTS prices (
		symbol TEXT NOT NULL,
		date DATETIME NOT NULL,
		close INTEGER NOT NULL,
		UNIQUE(symbol, date)
	);

	-- Sideways trend search results
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		source TEXT,
		algorithm TEXT NOT NULL,
		max_pct_change REAL NOT NULL,
		first_index INTEGER NOT NULL,
		last_index INTEGER NOT NULL,
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		days INTEGER NOT NULL,
		low INTEGER NOT NULL,
		high INTEGER NOT NULL,
		scale INTEGER NOT NULL,
		spread_pct REAL NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_prices_symbol ON prices(symbol, date);
	CREATE INDEX IF NOT EXISTS idx_analyses_symbol ON analyses(symbol, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isBusy(err error) bool {
	var se sqlite3.Error
	if stderrors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

// dbError marks err as a database failure while keeping the driver error
// reachable for isBusy.
func dbError(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", errors.ErrDatabaseError, msg, err)
}

// write runs fn in a transaction, retrying while the database is busy.
func (s *SQLiteStore) write(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return utils.Retry(ctx, s.retry, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return dbError("failed to begin transaction", err)
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return dbError("failed to commit transaction", err)
		}
		return nil
	})
}

// ============================================================================
// Series Methods
// ============================================================================

// SaveSeries stores series, replacing any prices previously stored for the
// same symbol.
func (s *SQLiteStore) SaveSeries(ctx context.Context, series *models.PriceSeries) error {
	if series.Len() == 0 {
		return errors.ErrEmptySeries
	}
	symbol := strings.ToUpper(series.Symbol)

	return s.write(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO series (symbol, source, scale, updated_at)
			VALUES (?, ?, ?, ?)
		`, symbol, series.Source, series.Scale, time.Now().UTC()); err != nil {
			return dbError("failed to save series", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM prices WHERE symbol = ?`, symbol); err != nil {
			return dbError("failed to clear prices", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO prices (symbol, date, close) VALUES (?, ?, ?)
		`)
		if err != nil {
			return dbError("failed to prepare statement", err)
		}
		defer stmt.Close()

		for _, p := range series.Points {
			if _, err := stmt.ExecContext(ctx, symbol, p.Date, p.Close); err != nil {
				return dbError("failed to insert price", err)
			}
		}
		return nil
	})
}

// GetSeries retrieves the stored series for symbol in ascending date order.
func (s *SQLiteStore) GetSeries(ctx context.Context, symbol string) (*models.PriceSeries, error) {
	symbol = strings.ToUpper(symbol)
	series := &models.PriceSeries{Symbol: symbol}

	var source sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT source, scale FROM series WHERE symbol = ?
	`, symbol).Scan(&source, &series.Scale)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrSeriesNotFound, "symbol %s", symbol)
	}
	if err != nil {
		return nil, dbError("failed to query series", err)
	}
	series.Source = source.String

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, close FROM prices WHERE symbol = ? ORDER BY date ASC
	`, symbol)
	if err != nil {
		return nil, dbError("failed to query prices", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			return nil, dbError("failed to scan price", err)
		}
		series.Points = append(series.Points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, dbError("error iterating prices", err)
	}

	return series, nil
}

// ListSymbols returns every stored symbol in alphabetical order.
func (s *SQLiteStore) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol FROM series ORDER BY symbol`)
	if err != nil {
		return nil, dbError("failed to query symbols", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, dbError("failed to scan symbol", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

// ============================================================================
// Analysis Methods
// ============================================================================

// SaveAnalysis saves an analysis result.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, a *models.Analysis) error {
	return s.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO analyses (id, symbol, source, algorithm, max_pct_change, first_index, last_index,
				start_date, end_date, days, low, high, scale, spread_pct, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, a.ID, strings.ToUpper(a.Symbol), a.Source, a.Algorithm, a.MaxPctChange, a.FirstIndex, a.LastIndex,
			a.StartDate, a.EndDate, a.Days, a.Low, a.High, a.Scale, a.SpreadPct, a.CreatedAt)
		if err != nil {
			return dbError("failed to save analysis", err)
		}
		return nil
	})
}

// GetAnalyses retrieves analyses matching filter, newest first.
func (s *SQLiteStore) GetAnalyses(ctx context.Context, filter AnalysisFilter) ([]models.Analysis, error) {
	query := `
		SELECT id, symbol, source, algorithm, max_pct_change, first_index, last_index,
			start_date, end_date, days, low, high, scale, spread_pct, created_at
		FROM analyses WHERE 1=1`
	var args []interface{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, strings.ToUpper(filter.Symbol))
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError("failed to query analyses", err)
	}
	defer rows.Close()

	var analyses []models.Analysis
	for rows.Next() {
		var a models.Analysis
		var source sql.NullString
		if err := rows.Scan(&a.ID, &a.Symbol, &source, &a.Algorithm, &a.MaxPctChange, &a.FirstIndex, &a.LastIndex,
			&a.StartDate, &a.EndDate, &a.Days, &a.Low, &a.High, &a.Scale, &a.SpreadPct, &a.CreatedAt); err != nil {
			return nil, dbError("failed to scan analysis", err)
		}
		a.Source = source.String
		analyses = append(analyses, a)
	}

	if err := rows.Err(); err != nil {
		return nil, dbError("error iterating analyses", err)
	}

	return analyses, nil
}
