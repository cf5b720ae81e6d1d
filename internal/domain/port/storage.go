package port

import (
	"context"
	"time"

	"quotecheck/internal/domain/model"
)

// ComparisonSink receives every record produced by the monitor.
type ComparisonSink interface {
	SaveComparison(ctx context.Context, rec model.ComparisonRecord) error
}

type StoragePort interface {
	ComparisonSink
	AccuracyStats(ctx context.Context, symbol string, period time.Duration) (*model.AccuracyStats, error)
	Ping(ctx context.Context) error
	Close() error
}
