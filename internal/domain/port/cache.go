package port

import (
	"context"
	"time"

	"quotecheck/internal/domain/model"
)

type CachePort interface {
	ComparisonSink
	GetLatest(ctx context.Context, symbol string) (*model.ComparisonRecord, error)
	GetWindow(ctx context.Context, symbol string) ([]model.ComparisonRecord, error)
	DeleteOlderThan(ctx context.Context, before time.Time) error
	Ping(ctx context.Context) error
	Close() error
}
