package service

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"quotecheck/internal/domain/model"
)

var (
	hundred       = decimal.NewFromInt(100)
	nearThreshold = decimal.RequireFromString("99.9")
)

// Compare builds the record for one symbol. The arithmetic runs on decimals
// so that the Exact and Near thresholds are hit on the quoted values rather
// than on their binary approximations.
func Compare(cycleID string, ts time.Time, symbol string, primary, secondary float64) (model.ComparisonRecord, error) {
	for _, p := range []float64{primary, secondary} {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return model.ComparisonRecord{}, fmt.Errorf("%s: %w", symbol, model.ErrInvalidPrice)
		}
	}
	if primary <= 0 {
		return model.ComparisonRecord{}, fmt.Errorf("%s: %w (got %v)", symbol, model.ErrNonPositivePrimary, primary)
	}
	if secondary <= 0 {
		return model.ComparisonRecord{}, fmt.Errorf("%s: %w (got %v)", symbol, model.ErrNonPositiveSecondary, secondary)
	}

	p := decimal.NewFromFloat(primary)
	s := decimal.NewFromFloat(secondary)
	delta := s.Sub(p)
	accuracy := hundred.Sub(delta.Div(p).Abs().Mul(hundred))

	return model.ComparisonRecord{
		CycleID:        cycleID,
		Timestamp:      ts,
		Symbol:         symbol,
		PrimaryPrice:   p,
		SecondaryPrice: s,
		Delta:          delta,
		AccuracyPct:    accuracy,
		Tier:           Classify(accuracy),
	}, nil
}

func Classify(accuracy decimal.Decimal) model.MatchTier {
	switch {
	case accuracy.Equal(hundred):
		return model.TierExact
	case accuracy.GreaterThanOrEqual(nearThreshold):
		return model.TierNear
	default:
		return model.TierMismatch
	}
}
