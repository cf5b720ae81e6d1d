package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"quotecheck/internal/domain/model"
	"quotecheck/internal/domain/port"
)

// Header is the first row of the accuracy log. Existing logs are appended
// to, so the column order must not change.
var Header = []string{"Timestamp", "Symbol", "Google Price", "Yahoo Price", "Delta", "Accuracy %"}

// CSVLog is the append-only accuracy log. The file is reopened for every
// row so a crash never leaves a buffered row behind.
type CSVLog struct {
	path string
}

var _ port.ComparisonSink = (*CSVLog)(nil)

func NewCSVLog(path string) *CSVLog {
	return &CSVLog{path: path}
}

func (l *CSVLog) Path() string {
	return l.path
}

// EnsureHeader creates the log with its header row when it does not exist.
func (l *CSVLog) EnsureHeader() error {
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return fmt.Errorf("failed to create log %s: %w", l.path, err)
	}
	return writeRows(f, Header)
}

func (l *CSVLog) SaveComparison(ctx context.Context, rec model.ComparisonRecord) error {
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log %s: %w", l.path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat log %s: %w", l.path, err)
	}
	if info.Size() == 0 {
		return writeRows(f, Header, Row(rec))
	}
	return writeRows(f, Row(rec))
}

// Row renders rec in log column order: secondary price before primary.
func Row(rec model.ComparisonRecord) []string {
	return []string{
		rec.Timestamp.Format(model.TimestampLayout),
		rec.Symbol,
		rec.SecondaryPrice.StringFixed(2),
		rec.PrimaryPrice.StringFixed(2),
		rec.Delta.StringFixed(4),
		rec.AccuracyPct.StringFixed(4),
	}
}

// writeRows writes and closes f.
func writeRows(f *os.File, rows ...[]string) error {
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write log %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close log %s: %w", f.Name(), err)
	}
	return nil
}
