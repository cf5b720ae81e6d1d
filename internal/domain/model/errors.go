package model

import (
	"errors"
	"fmt"
)

// ErrNonPositivePrimary is returned when the primary price cannot be used as
// the base of a percentage.
var ErrNonPositivePrimary = errors.New("primary price must be positive")

// ErrNonPositiveSecondary is returned when the secondary quote is zero or
// negative.
var ErrNonPositiveSecondary = errors.New("secondary price must be positive")

// ErrInvalidPrice is returned for NaN or infinite prices.
var ErrInvalidPrice = errors.New("price is not a finite number")

// FailureKind classifies why an extraction produced no price.
type FailureKind int

const (
	FailureOther FailureKind = iota
	FailureTimeout
	FailureParse
)

func (k FailureKind) String() string {
	switch k {
	case FailureTimeout:
		return "timeout"
	case FailureParse:
		return "parse"
	default:
		return "other"
	}
}

// FetchError is returned by price sources. Every kind degrades to an absent
// price; the kind only feeds logging.
type FetchError struct {
	Source Source
	Symbol string
	Kind   FailureKind
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Source, e.Symbol, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf reports the failure kind of err, FailureOther when err is not a
// FetchError.
func KindOf(err error) FailureKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return FailureOther
}
