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

const DefaultYahooURL = "https://finance.yahoo.com"

var cssStringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Yahoo reads the regular market price streamed into the quote page.
type Yahoo struct {
	browser port.Browser
	baseURL string
	timeout time.Duration
}

var _ port.PriceSource = (*Yahoo)(nil)

func NewYahoo(browser port.Browser, baseURL string, timeout time.Duration) *Yahoo {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	return &Yahoo{
		browser: browser,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

func (y *Yahoo) Name() string {
	return model.SourcePrimary.String()
}

func (y *Yahoo) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	quoteURL := fmt.Sprintf("%s/quote/%s", y.baseURL, url.PathEscape(symbol))
	if err := y.browser.Navigate(ctx, quoteURL); err != nil {
		return 0, classify(model.SourcePrimary, symbol, err)
	}

	selector := fmt.Sprintf(`fin-streamer[data-symbol="%s"][data-field="regularMarketPrice"]`, cssStringEscaper.Replace(symbol))
	text, err := y.browser.WaitText(ctx, selector, y.timeout)
	if err != nil {
		return 0, classify(model.SourcePrimary, symbol, err)
	}

	price, err := parsePrice(text, ",")
	if err != nil {
		return 0, classify(model.SourcePrimary, symbol, err)
	}
	return price, nil
}
