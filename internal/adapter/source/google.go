package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"quotecheck/internal/domain/model"
	"quotecheck/internal/domain/port"
)

const (
	DefaultGoogleURL = "https://www.google.com/finance"

	googlePriceSelector = "div.YMlKec.fxKbKc"
)

// Google reads the headline price of the finance quote page, which needs
// the listing exchange in its URL.
type Google struct {
	browser   port.Browser
	baseURL   string
	timeout   time.Duration
	exchanges model.ExchangeTable
}

var _ port.PriceSource = (*Google)(nil)

func NewGoogle(browser port.Browser, baseURL string, timeout time.Duration, exchanges model.ExchangeTable) *Google {
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	return &Google{
		browser:   browser,
		baseURL:   strings.TrimRight(baseURL, "/"),
		timeout:   timeout,
		exchanges: exchanges,
	}
}

func (g *Google) Name() string {
	return model.SourceSecondary.String()
}

func (g *Google) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	quoteURL := fmt.Sprintf("%s/quote/%s:%s", g.baseURL, url.PathEscape(symbol), g.exchanges.Lookup(symbol))
	if err := g.browser.Navigate(ctx, quoteURL); err != nil {
		return 0, classify(model.SourceSecondary, symbol, err)
	}

	text, err := g.browser.WaitText(ctx, googlePriceSelector, g.timeout)
	if err != nil {
		return 0, classify(model.SourceSecondary, symbol, err)
	}

	line, _, _ := strings.Cut(text, "\n")
	price, err := parsePrice(line, "$", ",")
	if err != nil {
		return 0, classify(model.SourceSecondary, symbol, err)
	}
	return price, nil
}
