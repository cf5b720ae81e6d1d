package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"quotecheck/internal/domain/model"
)

type scriptedSource struct {
	name   string
	prices map[string]float64
	fail   map[string]error
	calls  []string
	onCall func(symbol string)
}

func (s *scriptedSource) Name() string { return s.name }

func (s *scriptedSource) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	s.calls = append(s.calls, symbol)
	if s.onCall != nil {
		s.onCall(symbol)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err, ok := s.fail[symbol]; ok {
		return 0, err
	}
	return s.prices[symbol], nil
}

type countingCloser struct {
	closed atomic.Int32
}

func (c *countingCloser) Close() error {
	c.closed.Add(1)
	return nil
}

type memorySink struct {
	records []model.ComparisonRecord
	err     error
}

func (m *memorySink) SaveComparison(ctx context.Context, rec model.ComparisonRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock() func() time.Time {
	ts := time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local)
	return func() time.Time { return ts }
}

// cyclesThenCancel lets n sleeps pass and cancels on the next one.
func cyclesThenCancel(n int, cancel context.CancelFunc, calls *int) Sleeper {
	return func(ctx context.Context, d time.Duration) error {
		*calls++
		if *calls > n {
			cancel()
			return ctx.Err()
		}
		return nil
	}
}

type fixture struct {
	primary   *scriptedSource
	secondary *scriptedSource
	csv       *memorySink
	mirror    *memorySink
	session   *countingCloser
	out       *bytes.Buffer
}

func newFixture() *fixture {
	return &fixture{
		primary: &scriptedSource{
			name:   "Yahoo",
			prices: map[string]float64{"HWM": 100, "BAC": 50, "COKE": 100, "F": 10.5},
			fail:   map[string]error{},
		},
		secondary: &scriptedSource{
			name:   "Google",
			prices: map[string]float64{"HWM": 100, "BAC": 49, "COKE": 100.05, "F": 10.5},
			fail:   map[string]error{},
		},
		csv:     &memorySink{},
		mirror:  &memorySink{},
		session: &countingCloser{},
		out:     &bytes.Buffer{},
	}
}

func (f *fixture) monitor(symbols []string, opts ...Option) *Monitor {
	reporter := NewReporter(f.out, f.csv, discardLogger(), f.mirror)
	opts = append([]Option{WithClock(fixedClock())}, opts...)
	return NewMonitor(f.primary, f.secondary, reporter, f.session, symbols, 2*time.Second, f.out, discardLogger(), opts...)
}

func TestMonitor_RunWritesOneRowPerSymbolPerCycle(t *testing.T) {
	f := newFixture()
	symbols := []string{"HWM", "BAC", "COKE", "F"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sleeps := 0
	clears := 0
	ids := 0
	m := f.monitor(symbols,
		WithSleeper(cyclesThenCancel(2, cancel, &sleeps)),
		WithScreenClearer(func(io.Writer) { clears++ }),
		WithCycleIDs(func() string { ids++; return fmt.Sprintf("cycle-%d", ids) }),
	)

	if err := m.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	const cycles = 3
	if len(f.csv.records) != cycles*len(symbols) {
		t.Fatalf("expected %d rows, got %d", cycles*len(symbols), len(f.csv.records))
	}
	if len(f.mirror.records) != len(f.csv.records) {
		t.Errorf("mirror got %d records, log got %d", len(f.mirror.records), len(f.csv.records))
	}
	if clears != cycles {
		t.Errorf("screen cleared %d times, expected %d", clears, cycles)
	}
	for i, rec := range f.csv.records {
		if rec.Symbol != symbols[i%len(symbols)] {
			t.Errorf("row %d symbol = %s, expected %s", i, rec.Symbol, symbols[i%len(symbols)])
		}
		if expected := fmt.Sprintf("cycle-%d", i/len(symbols)+1); rec.CycleID != expected {
			t.Errorf("row %d cycle = %s, expected %s", i, rec.CycleID, expected)
		}
	}
	if got := f.session.closed.Load(); got != 1 {
		t.Errorf("session closed %d times, expected 1", got)
	}
	if m.State() != StateStopped {
		t.Errorf("state = %v, expected stopped", m.State())
	}

	out := f.out.String()
	for _, want := range []string{
		"📊 Live Stock Accuracy Checker\n2024-05-01 09:30:00\n\n",
		"HWM: $100.00 (Google)\n  ↳ Accuracy vs Yahoo: 100.0000% → ✅ Exact Match\n  Δ = 0.0000 | Yahoo @ $100.00\n\n",
		"BAC: $49.00 (Google)\n  ↳ Accuracy vs Yahoo: 98.0000% → ❌ Mismatch\n  Δ = -1.0000 | Yahoo @ $50.00\n\n",
		"COKE: $100.05 (Google)\n  ↳ Accuracy vs Yahoo: 99.9500% → ⚠️ Near Match\n",
		"🔄 Refreshing in 2 seconds... (Ctrl+C to stop)\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if !strings.HasSuffix(out, "\n🛑 Monitoring stopped by user.\n") {
		t.Errorf("output should end with stop notice, got tail %q", out[max(0, len(out)-60):])
	}
}

func TestMonitor_MissingPriceSkipsRow(t *testing.T) {
	f := newFixture()
	f.primary.fail["BAC"] = &model.FetchError{Source: model.SourcePrimary, Symbol: "BAC", Kind: model.FailureTimeout, Err: errors.New("timed out waiting for element")}
	f.secondary.fail["F"] = &model.FetchError{Source: model.SourceSecondary, Symbol: "F", Kind: model.FailureParse, Err: errors.New("parse price: invalid syntax")}

	m := f.monitor([]string{"HWM", "BAC", "F"})
	res := m.RunCycle(context.Background())

	if res.Written != 1 || res.Skipped != 2 {
		t.Errorf("cycle result = %+v, expected 1 written 2 skipped", res)
	}
	if len(f.csv.records) != 1 || f.csv.records[0].Symbol != "HWM" {
		t.Fatalf("unexpected rows: %+v", f.csv.records)
	}

	// Both sources are asked even when the first fails.
	if strings.Join(f.secondary.calls, ",") != "HWM,BAC,F" {
		t.Errorf("secondary calls = %v", f.secondary.calls)
	}

	out := f.out.String()
	for _, want := range []string{
		"BAC (Yahoo): [Caution] Error - timed out waiting for element\n",
		"BAC: [Caution] Could not retrieve both prices\n\n",
		"F (Google): [Caution] Error - parse price: invalid syntax\n",
		"F: [Caution] Could not retrieve both prices\n\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestMonitor_ZeroPrimaryPriceIsSkipped(t *testing.T) {
	f := newFixture()
	f.primary.prices["F"] = 0

	m := f.monitor([]string{"F", "HWM"})
	res := m.RunCycle(context.Background())

	if res.Written != 1 || len(f.csv.records) != 1 || f.csv.records[0].Symbol != "HWM" {
		t.Errorf("expected only HWM to be written, got %+v", f.csv.records)
	}
	if !strings.Contains(f.out.String(), "F: [Caution] Cannot compare prices - ") {
		t.Errorf("missing zero price notice in %q", f.out.String())
	}
}

func TestMonitor_LogFailureDoesNotStopLoop(t *testing.T) {
	f := newFixture()
	f.csv.err = errors.New("disk full")

	m := f.monitor([]string{"HWM", "BAC"})
	res := m.RunCycle(context.Background())

	if res.Written != 0 || res.Skipped != 2 {
		t.Errorf("cycle result = %+v", res)
	}
	if len(f.mirror.records) != 2 {
		t.Errorf("mirror should still receive records, got %d", len(f.mirror.records))
	}
}

func TestMonitor_InterruptDuringFetchReleasesSessionOnce(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.secondary.onCall = func(symbol string) {
		if symbol == "BAC" {
			cancel()
		}
	}

	sleeps := 0
	m := f.monitor([]string{"HWM", "BAC", "COKE"}, WithSleeper(func(ctx context.Context, d time.Duration) error {
		sleeps++
		return nil
	}))

	if err := m.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if sleeps != 0 {
		t.Errorf("expected no sleep after interrupt, got %d", sleeps)
	}
	if len(f.csv.records) != 1 {
		t.Errorf("expected only the row completed before interrupt, got %d", len(f.csv.records))
	}
	if strings.Contains(f.out.String(), "Could not retrieve") {
		t.Error("interrupt must not be reported as an extraction failure")
	}
	if got := f.session.closed.Load(); got != 1 {
		t.Errorf("session closed %d times, expected 1", got)
	}
	for _, s := range f.primary.calls {
		if s == "COKE" {
			t.Error("no symbol should be fetched after interrupt")
		}
	}
}

func TestMonitor_InterruptBeforeStart(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := f.monitor([]string{"HWM"})
	if err := m.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.Run(ctx); err != nil {
		t.Fatal(err)
	}

	if len(f.primary.calls) != 0 {
		t.Errorf("no fetch expected, got %v", f.primary.calls)
	}
	if got := f.session.closed.Load(); got != 1 {
		t.Errorf("session closed %d times, expected 1", got)
	}
	if strings.Count(f.out.String(), "Monitoring stopped by user.") != 1 {
		t.Error("stop notice should be printed once")
	}
}

func TestSleepContext(t *testing.T) {
	if err := SleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("SleepContext() = %v, expected nil", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := SleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("SleepContext() = %v, expected context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("SleepContext did not return promptly on cancellation")
	}
}
