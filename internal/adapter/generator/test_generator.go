package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"quotecheck/internal/domain/model"
	"quotecheck/internal/domain/port"
)

// Market is an offline quote feed used in test mode. Both sources read the
// same random walk; the secondary one adds a small skew and now and then
// drops a quote so every tier and the failure path show up.
type Market struct {
	mu      sync.Mutex
	r       *rand.Rand
	prices  map[string]float64
	skew    float64
	dropPct float64
	log     *slog.Logger
}

func NewMarket(seed int64, log *slog.Logger) *Market {
	return &Market{
		r:       rand.New(rand.NewSource(seed)),
		prices:  make(map[string]float64),
		skew:    0.008,
		dropPct: 0.05,
		log:     log,
	}
}

// step advances the walk for symbol and returns the new base price.
func (m *Market) step(symbol string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	price, ok := m.prices[symbol]
	if !ok {
		price = m.r.Float64()*100 + 1
	}
	price *= 1 + (m.r.Float64()-0.5)*0.01
	if price < 0.01 {
		price = 0.01
	}
	m.prices[symbol] = price
	return price
}

func (m *Market) last(symbol string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prices[symbol]
	return p, ok
}

func (m *Market) roll() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.r.Float64()
}

func (m *Market) Primary() port.PriceSource {
	return &feed{market: m, source: model.SourcePrimary}
}

func (m *Market) Secondary() port.PriceSource {
	return &feed{market: m, source: model.SourceSecondary}
}

type feed struct {
	market *Market
	source model.Source
}

func (f *feed) Name() string { return f.source.String() }

func (f *feed) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &model.FetchError{Source: f.source, Symbol: symbol, Kind: model.FailureOther, Err: err}
	}

	if f.source == model.SourcePrimary {
		return f.market.step(symbol), nil
	}

	base, ok := f.market.last(symbol)
	if !ok {
		base = f.market.step(symbol)
	}

	roll := f.market.roll()
	switch {
	case roll < f.market.dropPct:
		f.market.log.Debug("generator: dropping quote", "symbol", symbol)
		return 0, &model.FetchError{Source: f.source, Symbol: symbol, Kind: model.FailureTimeout, Err: fmt.Errorf("synthetic quote dropped")}
	case roll < 0.5:
		return base, nil
	default:
		return base * (1 + (roll-0.75)*f.market.skew), nil
	}
}
