package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"quotecheck/internal/domain/model"
	"quotecheck/internal/domain/port"
)

type State int32

const (
	StateRunning State = iota
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Sleeper blocks for d or until ctx is done, returning ctx.Err() in the
// latter case.
type Sleeper func(ctx context.Context, d time.Duration) error

func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// CycleResult summarizes one pass over the symbol list.
type CycleResult struct {
	ID      string
	Written int
	Skipped int
}

// Monitor is the polling loop. Everything runs on the caller's goroutine:
// symbols one after another, primary before secondary.
type Monitor struct {
	primary   port.PriceSource
	secondary port.PriceSource
	reporter  *Reporter
	session   io.Closer
	symbols   []string
	interval  time.Duration
	out       io.Writer
	logger    *slog.Logger

	now   func() time.Time
	sleep Sleeper
	clear func(io.Writer)
	newID func() string

	state    atomic.Int32
	stopOnce sync.Once
}

type Option func(*Monitor)

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func WithSleeper(s Sleeper) Option {
	return func(m *Monitor) { m.sleep = s }
}

func WithScreenClearer(clear func(io.Writer)) Option {
	return func(m *Monitor) { m.clear = clear }
}

func WithCycleIDs(newID func() string) Option {
	return func(m *Monitor) { m.newID = newID }
}

// NewMonitor wires the loop. session is released exactly once when Run
// returns.
func NewMonitor(
	primary, secondary port.PriceSource,
	reporter *Reporter,
	session io.Closer,
	symbols []string,
	interval time.Duration,
	out io.Writer,
	logger *slog.Logger,
	opts ...Option,
) *Monitor {
	m := &Monitor{
		primary:   primary,
		secondary: secondary,
		reporter:  reporter,
		session:   session,
		symbols:   append([]string(nil), symbols...),
		interval:  interval,
		out:       out,
		logger:    logger,
		now:       time.Now,
		sleep:     SleepContext,
		clear:     func(io.Writer) {},
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Monitor) State() State {
	return State(m.state.Load())
}

// Run polls until ctx is cancelled. Cancellation is the only way out and is
// not an error.
func (m *Monitor) Run(ctx context.Context) error {
	defer m.stop()

	m.logger.Info("monitor started", "symbols", m.symbols, "interval", m.interval.String())

	for ctx.Err() == nil {
		res := m.RunCycle(ctx)
		if ctx.Err() != nil {
			break
		}
		m.logger.Debug("cycle finished", "cycle_id", res.ID, "written", res.Written, "skipped", res.Skipped)

		fmt.Fprintf(m.out, "🔄 Refreshing in %s seconds... (Ctrl+C to stop)\n",
			strconv.FormatFloat(m.interval.Seconds(), 'f', -1, 64))

		if err := m.sleep(ctx, m.interval); err != nil {
			break
		}
	}
	return nil
}

func (m *Monitor) stop() {
	m.stopOnce.Do(func() {
		m.state.Store(int32(StateStopped))
		if err := m.session.Close(); err != nil {
			m.logger.Error("failed to release browser session", "error", err)
		}
		fmt.Fprintln(m.out, "\n🛑 Monitoring stopped by user.")
		m.logger.Info("monitor stopped")
	})
}

// RunCycle clears the screen, prints the header and processes every symbol
// once. It stops early when ctx is cancelled.
func (m *Monitor) RunCycle(ctx context.Context) CycleResult {
	res := CycleResult{ID: m.newID()}
	ts := m.now()

	m.clear(m.out)
	fmt.Fprintln(m.out, "📊 Live Stock Accuracy Checker")
	fmt.Fprintf(m.out, "%s\n\n", ts.Format(model.TimestampLayout))

	for _, symbol := range m.symbols {
		if ctx.Err() != nil {
			return res
		}
		if m.processSymbol(ctx, res.ID, ts, symbol) {
			res.Written++
		} else {
			res.Skipped++
		}
	}
	return res
}

func (m *Monitor) processSymbol(ctx context.Context, cycleID string, ts time.Time, symbol string) bool {
	primary := m.fetch(ctx, m.primary, model.SourcePrimary, symbol)
	secondary := m.fetch(ctx, m.secondary, model.SourceSecondary, symbol)
	if ctx.Err() != nil {
		return false
	}

	if !primary.OK() || !secondary.OK() {
		m.reporter.Notice("%s: [Caution] Could not retrieve both prices\n\n", symbol)
		return false
	}

	rec, err := Compare(cycleID, ts, symbol, *primary.Price, *secondary.Price)
	if err != nil {
		m.logger.Warn("comparison skipped", "symbol", symbol, "cycle_id", cycleID,
			"primary", *primary.Price, "secondary", *secondary.Price, "error", err)
		m.reporter.Notice("%s: [Caution] Cannot compare prices - %v\n\n", symbol, err)
		return false
	}

	return m.reporter.Report(ctx, rec) == nil
}

// fetch collapses every failure into an absent price.
func (m *Monitor) fetch(ctx context.Context, src port.PriceSource, source model.Source, symbol string) model.PriceReading {
	reading := model.PriceReading{Symbol: symbol, Source: source, Timestamp: m.now()}
	if ctx.Err() != nil {
		return reading
	}

	price, err := src.FetchPrice(ctx, symbol)
	if err != nil {
		if ctx.Err() != nil {
			return reading
		}
		m.logger.Warn("price extraction failed",
			"symbol", symbol,
			"source", src.Name(),
			"kind", model.KindOf(err).String(),
			"error", err)

		shown := err
		var fe *model.FetchError
		if errors.As(err, &fe) && fe.Err != nil {
			shown = fe.Err
		}
		m.reporter.Notice("%s (%s): [Caution] Error - %v\n", symbol, src.Name(), shown)
		return reading
	}

	reading.Price = &price
	return reading
}
