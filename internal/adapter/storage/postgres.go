package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"quotecheck/internal/domain/model"
	"quotecheck/internal/domain/port"
)

// PostgresAdapter mirrors every comparison into a table so accuracy can be
// queried over time. The CSV log stays the record of truth.
type PostgresAdapter struct {
	db *sql.DB
}

var _ port.StoragePort = (*PostgresAdapter)(nil)

func NewPostgresAdapter(connStr string, maxOpen, maxIdle int, maxLifetime time.Duration) (*PostgresAdapter, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresAdapter{db: db}, nil
}

func (a *PostgresAdapter) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS comparisons (
		id SERIAL PRIMARY KEY,
		cycle_id UUID NOT NULL,
		symbol VARCHAR(20) NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		primary_price NUMERIC(18, 6) NOT NULL,
		secondary_price NUMERIC(18, 6) NOT NULL,
		delta NUMERIC(18, 6) NOT NULL,
		accuracy_pct NUMERIC(18, 8) NOT NULL,
		tier VARCHAR(10) NOT NULL,
		created_at TIMESTAMP DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_comparisons_symbol_timestamp ON comparisons(symbol, timestamp);
	`
	if _, err := a.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}
	return nil
}

func (a *PostgresAdapter) SaveComparison(ctx context.Context, rec model.ComparisonRecord) error {
	query := `
	INSERT INTO comparisons (cycle_id, symbol, timestamp, primary_price, secondary_price, delta, accuracy_pct, tier)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := a.db.ExecContext(ctx, query,
		rec.CycleID,
		rec.Symbol,
		rec.Timestamp,
		rec.PrimaryPrice.String(),
		rec.SecondaryPrice.String(),
		rec.Delta.String(),
		rec.AccuracyPct.String(),
		rec.Tier.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert comparison for %s: %w", rec.Symbol, err)
	}
	return nil
}

// AccuracyStats returns nil when no comparison of symbol falls inside period.
func (a *PostgresAdapter) AccuracyStats(ctx context.Context, symbol string, period time.Duration) (*model.AccuracyStats, error) {
	query := `
	SELECT COUNT(*),
		COALESCE(AVG(accuracy_pct), 0)::DOUBLE PRECISION,
		COALESCE(MIN(accuracy_pct), 0)::DOUBLE PRECISION,
		COUNT(*) FILTER (WHERE tier = 'Mismatch')
	FROM comparisons
	WHERE symbol = $1 AND timestamp >= $2
	`
	stats := &model.AccuracyStats{Symbol: symbol, Period: period}
	since := time.Now().Add(-period)

	err := a.db.QueryRowContext(ctx, query, symbol, since).Scan(
		&stats.Count,
		&stats.AvgAccuracy,
		&stats.MinAccuracy,
		&stats.Mismatches,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query accuracy stats for %s: %w", symbol, err)
	}
	if stats.Count == 0 {
		return nil, nil
	}
	return stats, nil
}

func (a *PostgresAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *PostgresAdapter) Close() error {
	return a.db.Close()
}
