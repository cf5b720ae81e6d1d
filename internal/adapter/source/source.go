package source

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"quotecheck/internal/domain/model"
	"quotecheck/internal/domain/port"
)

// classify wraps err into a FetchError of the matching kind.
func classify(src model.Source, symbol string, err error) error {
	kind := model.FailureOther
	var numErr *strconv.NumError
	switch {
	case errors.Is(err, port.ErrWaitTimeout), errors.Is(err, context.DeadlineExceeded):
		kind = model.FailureTimeout
	case errors.As(err, &numErr):
		kind = model.FailureParse
	}
	return &model.FetchError{Source: src, Symbol: symbol, Kind: kind, Err: err}
}

// parsePrice strips the given characters from text and parses what is left.
func parsePrice(text string, strip ...string) (float64, error) {
	for _, s := range strip {
		text = strings.ReplaceAll(text, s, "")
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("parse price: %w", err)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("parse price %q: %w", text, &strconv.NumError{Func: "ParseFloat", Num: text, Err: strconv.ErrSyntax})
	}
	return price, nil
}
