package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultExchange is used for symbols missing from an ExchangeTable.
	DefaultExchange = "NASDAQ"

	// TimestampLayout formats cycle timestamps on screen and in the CSV log.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Source identifies one of the two quote providers being cross-checked.
type Source int

const (
	SourcePrimary Source = iota
	SourceSecondary
)

func (s Source) String() string {
	switch s {
	case SourcePrimary:
		return "Yahoo"
	case SourceSecondary:
		return "Google"
	default:
		return "unknown"
	}
}

// ExchangeTable maps ticker symbols to the exchange code the secondary
// source expects in its quote URL.
type ExchangeTable map[string]string

func (t ExchangeTable) Lookup(symbol string) string {
	if ex, ok := t[strings.ToUpper(symbol)]; ok && ex != "" {
		return ex
	}
	return DefaultExchange
}

// PriceReading is the outcome of one extraction. A nil Price means the
// extraction failed.
type PriceReading struct {
	Symbol    string
	Source    Source
	Price     *float64
	Timestamp time.Time
}

func (r PriceReading) OK() bool {
	return r.Price != nil
}

type MatchTier int

const (
	TierMismatch MatchTier = iota
	TierNear
	TierExact
)

func (t MatchTier) String() string {
	switch t {
	case TierExact:
		return "Exact"
	case TierNear:
		return "Near"
	default:
		return "Mismatch"
	}
}

// Label is the decorated form printed in the terminal block.
func (t MatchTier) Label() string {
	switch t {
	case TierExact:
		return "✅ Exact Match"
	case TierNear:
		return "⚠️ Near Match"
	default:
		return "❌ Mismatch"
	}
}

func (t MatchTier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *MatchTier) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Exact":
		*t = TierExact
	case "Near":
		*t = TierNear
	default:
		*t = TierMismatch
	}
	return nil
}

// ComparisonRecord is produced once per symbol per cycle and written
// immediately.
type ComparisonRecord struct {
	CycleID        string          `json:"cycle_id"`
	Timestamp      time.Time       `json:"timestamp"`
	Symbol         string          `json:"symbol"`
	PrimaryPrice   decimal.Decimal `json:"primary_price"`
	SecondaryPrice decimal.Decimal `json:"secondary_price"`
	Delta          decimal.Decimal `json:"delta"`
	AccuracyPct    decimal.Decimal `json:"accuracy_pct"`
	Tier           MatchTier       `json:"tier"`
}

// AccuracyStats summarizes stored comparisons of one symbol over a period.
type AccuracyStats struct {
	Symbol      string        `json:"symbol"`
	Period      time.Duration `json:"-"`
	Count       int64         `json:"count"`
	AvgAccuracy float64       `json:"avg_accuracy"`
	MinAccuracy float64       `json:"min_accuracy"`
	Mismatches  int64         `json:"mismatches"`
}
