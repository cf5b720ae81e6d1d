package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"quotecheck/internal/domain/model"
	"quotecheck/internal/domain/port"
)

// Reporter prints the per-symbol block and hands the record to the log and
// to every mirror. Only the log's failure is reported as an error; mirrors
// are best effort.
type Reporter struct {
	out     io.Writer
	log     port.ComparisonSink
	mirrors []port.ComparisonSink
	logger  *slog.Logger
}

func NewReporter(out io.Writer, log port.ComparisonSink, logger *slog.Logger, mirrors ...port.ComparisonSink) *Reporter {
	return &Reporter{
		out:     out,
		log:     log,
		mirrors: mirrors,
		logger:  logger,
	}
}

func (r *Reporter) Report(ctx context.Context, rec model.ComparisonRecord) error {
	primary, secondary := model.SourcePrimary, model.SourceSecondary

	fmt.Fprintf(r.out, "%s: $%s (%s)\n", rec.Symbol, rec.SecondaryPrice.StringFixed(2), secondary)
	fmt.Fprintf(r.out, "  ↳ Accuracy vs %s: %s%% → %s\n", primary, rec.AccuracyPct.StringFixed(4), rec.Tier.Label())
	fmt.Fprintf(r.out, "  Δ = %s | %s @ $%s\n\n", rec.Delta.StringFixed(4), primary, rec.PrimaryPrice.StringFixed(2))

	logErr := r.log.SaveComparison(ctx, rec)
	if logErr != nil {
		r.logger.Error("failed to append comparison", "symbol", rec.Symbol, "cycle_id", rec.CycleID, "error", logErr)
	}

	for _, m := range r.mirrors {
		if err := m.SaveComparison(ctx, rec); err != nil {
			r.logger.Warn("failed to mirror comparison", "symbol", rec.Symbol, "cycle_id", rec.CycleID, "error", err)
		}
	}

	if logErr != nil {
		return logErr
	}

	r.logger.Debug("comparison recorded",
		"symbol", rec.Symbol,
		"cycle_id", rec.CycleID,
		"accuracy", rec.AccuracyPct.StringFixed(4),
		"tier", rec.Tier.String())
	return nil
}

// Notice prints a one-off line to the terminal.
func (r *Reporter) Notice(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}
