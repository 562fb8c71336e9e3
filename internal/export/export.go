// Package export writes transactions to CSV and JSON files for backup and
// spreadsheet use.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"finanse/internal/core"
	"finanse/internal/log"
)

// Range selects how far back an export reaches.
type Range string

const (
	RangeAll     Range = "all"
	RangeMonth   Range = "month"
	RangeQuarter Range = "quarter"
	RangeYear    Range = "year"
)

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

var (
	// ErrNothingToExport is returned when the selected range holds no transactions.
	ErrNothingToExport = errors.New("no transactions to export in the selected range")
	ErrUnknownRange    = errors.New("unknown export range")
	ErrUnknownFormat   = errors.New("unknown export format")
)

func ParseRange(s string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(s))); r {
	case RangeAll, RangeMonth, RangeQuarter, RangeYear:
		return r, nil
	case "":
		return RangeAll, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownRange, s)
	}
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, s)
	}
}

// Label is the human-readable name of the range.
func (r Range) Label() string {
	switch r {
	case RangeMonth:
		return "Ostatni miesiąc"
	case RangeQuarter:
		return "Ostatni kwartał"
	case RangeYear:
		return "Ostatni rok"
	default:
		return "Cały okres"
	}
}

// Cutoff returns midnight of today minus the range length. ok is false for RangeAll.
func (r Range) Cutoff(now time.Time) (time.Time, bool) {
	today := core.StartOfDay(now)
	switch r {
	case RangeMonth:
		return today.AddDate(0, -1, 0), true
	case RangeQuarter:
		return today.AddDate(0, -3, 0), true
	case RangeYear:
		return today.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// Select returns the transactions dated on or after the range cutoff, in
// input order. It fails with ErrNothingToExport when none remain.
func Select(txs []core.Transaction, r Range, now time.Time) ([]core.Transaction, error) {
	cutoff, ok := r.Cutoff(now)
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if ok && t.Date.Before(cutoff) {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, ErrNothingToExport
	}
	return out, nil
}

// FileName returns the download name for format on the day of now.
func FileName(f Format, now time.Time) string {
	day := now.Format(time.DateOnly)
	if f == FormatJSON {
		return "wydatki_backup_" + day + ".json"
	}
	return "wydatki_" + day + "." + string(f)
}

// Write encodes txs in format f.
func Write(w io.Writer, f Format, txs []core.Transaction, r Range, now time.Time) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, txs)
	case FormatJSON:
		return WriteJSON(w, txs, r, now)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, f)
	}
}

// WriteFiles selects the transactions in r and writes one file per format
// into dir concurrently. It returns the written paths in format order.
func WriteFiles(ctx context.Context, dir string, formats []Format, txs []core.Transaction, r Range, now time.Time, logger *log.Logger) ([]string, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentExport)

	selected, err := Select(txs, r, now)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	paths := make([]string, len(formats))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range formats {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, FileName(f, now))
			if err := writeFile(path, f, selected, r, now); err != nil {
				return fmt.Errorf("export %s: %w", f, err)
			}
			paths[i] = path
			logger.InfoContext(ctx, "Export written",
				log.FieldOperation, log.OpExport,
				log.FieldFormat, string(f),
				log.FieldPath, path,
				log.FieldCount, len(selected))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func writeFile(path string, f Format, txs []core.Transaction, r Range, now time.Time) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(file, f, txs, r, now)
}
