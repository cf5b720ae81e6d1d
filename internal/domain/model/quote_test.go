package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestExchangeTable_Lookup(t *testing.T) {
	table := ExchangeTable{"HWM": "NYSE", "COKE": "NASDAQ", "X": ""}

	tests := []struct {
		symbol   string
		expected string
	}{
		{"HWM", "NYSE"},
		{"hwm", "NYSE"},
		{"COKE", "NASDAQ"},
		{"AAPL", DefaultExchange},
		{"X", DefaultExchange},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			if got := table.Lookup(tt.symbol); got != tt.expected {
				t.Errorf("Lookup(%q) = %s, expected %s", tt.symbol, got, tt.expected)
			}
		})
	}
}

func TestMatchTier_Label(t *testing.T) {
	tests := []struct {
		tier     MatchTier
		name     string
		expected string
	}{
		{TierExact, "Exact", "✅ Exact Match"},
		{TierNear, "Near", "⚠️ Near Match"},
		{TierMismatch, "Mismatch", "❌ Mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tier.String() != tt.name {
				t.Errorf("String() = %s, expected %s", tt.tier.String(), tt.name)
			}
			if tt.tier.Label() != tt.expected {
				t.Errorf("Label() = %s, expected %s", tt.tier.Label(), tt.expected)
			}

			var back MatchTier
			text, _ := tt.tier.MarshalText()
			if err := back.UnmarshalText(text); err != nil || back != tt.tier {
				t.Errorf("text round trip gave %v (err %v)", back, err)
			}
		})
	}
}

func TestFetchError_Kind(t *testing.T) {
	inner := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", &FetchError{Source: SourceSecondary, Symbol: "F", Kind: FailureParse, Err: inner})

	if KindOf(err) != FailureParse {
		t.Errorf("KindOf() = %v, expected parse", KindOf(err))
	}
	if !errors.Is(err, inner) {
		t.Error("expected FetchError to unwrap to inner error")
	}
	if KindOf(inner) != FailureOther {
		t.Errorf("KindOf(plain) = %v, expected other", KindOf(inner))
	}
}

func TestParseDataMode(t *testing.T) {
	if m, err := ParseDataMode("test"); err != nil || m != TestMode {
		t.Errorf("ParseDataMode(test) = %v, %v", m, err)
	}
	if m, err := ParseDataMode(""); err != nil || m != LiveMode {
		t.Errorf("ParseDataMode(\"\") = %v, %v", m, err)
	}
	if _, err := ParseDataMode("paper"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
