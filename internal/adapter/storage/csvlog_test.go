package storage

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"quotecheck/internal/domain/model"
)

func readLog(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	return rows
}

func sampleRecord(symbol string) model.ComparisonRecord {
	return model.ComparisonRecord{
		Timestamp:      time.Date(2024, 5, 1, 9, 30, 5, 0, time.Local),
		Symbol:         symbol,
		PrimaryPrice:   decimal.RequireFromString("50"),
		SecondaryPrice: decimal.RequireFromString("49"),
		Delta:          decimal.RequireFromString("-1"),
		AccuracyPct:    decimal.RequireFromString("98"),
		Tier:           model.TierMismatch,
	}
}

func TestCSVLog_EnsureHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	l := NewCSVLog(path)

	if err := l.EnsureHeader(); err != nil {
		t.Fatalf("EnsureHeader() error: %v", err)
	}
	if err := l.SaveComparison(context.Background(), sampleRecord("F")); err != nil {
		t.Fatalf("SaveComparison() error: %v", err)
	}
	if err := l.EnsureHeader(); err != nil {
		t.Fatalf("second EnsureHeader() error: %v", err)
	}

	rows := readLog(t, path)
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d rows", len(rows))
	}
	if !reflect.DeepEqual(rows[0], Header) {
		t.Errorf("header = %v, expected %v", rows[0], Header)
	}

	raw, _ := os.ReadFile(path)
	expected := "Timestamp,Symbol,Google Price,Yahoo Price,Delta,Accuracy %\n" +
		"2024-05-01 09:30:05,F,49.00,50.00,-1.0000,98.0000\n"
	if string(raw) != expected {
		t.Errorf("log contents:\n%q\nexpected:\n%q", raw, expected)
	}
}

func TestCSVLog_AppendsToExistingLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	existing := "Timestamp,Symbol,Google Price,Yahoo Price,Delta,Accuracy %\n2023-01-01 00:00:00,BAC,1.00,1.00,0.0000,100.0000\n"
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewCSVLog(path)
	if err := l.EnsureHeader(); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"HWM", "BAC"} {
		if err := l.SaveComparison(context.Background(), sampleRecord(s)); err != nil {
			t.Fatal(err)
		}
	}

	rows := readLog(t, path)
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[1][1] != "BAC" || rows[2][1] != "HWM" || rows[3][1] != "BAC" {
		t.Errorf("unexpected symbol column: %v", rows)
	}
}

func TestCSVLog_RecreatesHeaderWhenFileRemoved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	l := NewCSVLog(path)

	if err := l.SaveComparison(context.Background(), sampleRecord("COKE")); err != nil {
		t.Fatal(err)
	}

	rows := readLog(t, path)
	if len(rows) != 2 || !reflect.DeepEqual(rows[0], Header) {
		t.Errorf("expected header to be written first, got %v", rows)
	}
}

func TestCSVLog_UnwritablePath(t *testing.T) {
	l := NewCSVLog(filepath.Join(t.TempDir(), "missing", "log.csv"))
	if err := l.EnsureHeader(); err == nil {
		t.Error("expected error for missing directory")
	}
	if err := l.SaveComparison(context.Background(), sampleRecord("F")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestRow(t *testing.T) {
	rec := sampleRecord("HWM")
	rec.PrimaryPrice = decimal.RequireFromString("131.065")
	rec.SecondaryPrice = decimal.RequireFromString("131.1")
	rec.Delta = decimal.RequireFromString("0.035")
	rec.AccuracyPct = decimal.RequireFromString("99.97329596398871")

	expected := []string{"2024-05-01 09:30:05", "HWM", "131.10", "131.07", "0.0350", "99.9733"}
	if got := Row(rec); !reflect.DeepEqual(got, expected) {
		t.Errorf("Row() = %v, expected %v", got, expected)
	}
}
