package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quotecheck/internal/domain/model"
	"quotecheck/internal/domain/port"
)

// RedisAdapter keeps the latest comparison per symbol and a sliding window
// of recent ones for the status endpoints.
type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

var _ port.CachePort = (*RedisAdapter)(nil)

func NewRedisAdapter(addr, password string, db int, ttl time.Duration) (*RedisAdapter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisAdapter{
		client: client,
		ttl:    ttl,
	}, nil
}

func latestKey(symbol string) string {
	return "comparison:latest:" + symbol
}

func windowKey(symbol string) string {
	return "comparison:window:" + symbol
}

func (a *RedisAdapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

// SaveComparison stores rec as the latest value and adds it to the window
// sorted set (score = unix seconds).
func (a *RedisAdapter) SaveComparison(ctx context.Context, rec model.ComparisonRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal comparison: %w", err)
	}

	pipe := a.client.TxPipeline()
	pipe.Set(ctx, latestKey(rec.Symbol), data, a.ttl)
	pipe.ZAdd(ctx, windowKey(rec.Symbol), redis.Z{
		Score:  float64(rec.Timestamp.Unix()),
		Member: data,
	})
	pipe.ZRemRangeByScore(ctx, windowKey(rec.Symbol), "-inf", strconv.FormatInt(rec.Timestamp.Add(-a.ttl).Unix(), 10))
	pipe.Expire(ctx, windowKey(rec.Symbol), a.ttl*2)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store comparison for %s in redis: %w", rec.Symbol, err)
	}
	return nil
}

func (a *RedisAdapter) GetLatest(ctx context.Context, symbol string) (*model.ComparisonRecord, error) {
	data, err := a.client.Get(ctx, latestKey(symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest comparison from redis: %w", err)
	}

	var rec model.ComparisonRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comparison: %w", err)
	}
	return &rec, nil
}

// GetWindow returns the comparisons of symbol stored during the last TTL,
// oldest first.
func (a *RedisAdapter) GetWindow(ctx context.Context, symbol string) ([]model.ComparisonRecord, error) {
	now := time.Now()
	results, err := a.client.ZRangeByScore(ctx, windowKey(symbol), &redis.ZRangeBy{
		Min: strconv.FormatInt(now.Add(-a.ttl).Unix(), 10),
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get comparison window for %s: %w", symbol, err)
	}

	out := make([]model.ComparisonRecord, 0, len(results))
	for _, item := range results {
		var rec model.ComparisonRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal comparison from window %s: %w", symbol, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// DeleteOlderThan trims every window set.
func (a *RedisAdapter) DeleteOlderThan(ctx context.Context, before time.Time) error {
	max := strconv.FormatInt(before.Unix(), 10)

	iter := a.client.Scan(ctx, 0, windowKey("*"), 0).Iterator()
	for iter.Next(ctx) {
		if err := a.client.ZRemRangeByScore(ctx, iter.Val(), "-inf", max).Err(); err != nil {
			return fmt.Errorf("failed to delete old comparisons from %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate redis keys: %w", err)
	}
	return nil
}

func (a *RedisAdapter) Close() error {
	return a.client.Close()
}
