package port

import (
	"context"
)

// PriceSource extracts the current price of a symbol from one provider.
// Failures are reported as *model.FetchError.
type PriceSource interface {
	FetchPrice(ctx context.Context, symbol string) (float64, error)
	Name() string
}
