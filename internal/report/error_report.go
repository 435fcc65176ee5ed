// Package report writes the per-run error report: one CSV row per rejected
// input row, carrying the original values so the file can be corrected and
// re-submitted as-is.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/werkimport/internal/domain"
)

// utf8BOM keeps Excel from mangling umlauts when the report is opened directly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// The data columns reuse the input contract's names so a corrected report can
// be fed straight back into the importer, which ignores the extra columns.
var header = []string{
	"Zeile", "Leitung_ID", "Material", "Durchmesser_mm",
	"X_Start", "Y_Start", "X_End", "Y_End",
	"Verlegedatum", "Bemerkung", "Grund", "Fehler",
}

// FileName derives the report artifact name from the input file:
// <stem>_fehler_<timestamp>.csv, placed next to the input.
func FileName(inputPath string, ts time.Time) string {
	dir := filepath.Dir(inputPath)
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, fmt.Sprintf("%s_fehler_%s.csv", stem, ts.Format("20060102_150405")))
}

// Write emits one record per rejected row, sorted by original row number.
// The input slice is not modified.
func Write(w io.Writer, rejected []domain.RejectedRow) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write byte order mark: %w", err)
	}

	sorted := make([]domain.RejectedRow, len(rejected))
	copy(sorted, rejected)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Record.RowNumber < sorted[j].Record.RowNumber
	})

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for _, row := range sorted {
		rec := row.Record
		record := []string{
			strconv.Itoa(rec.RowNumber),
			rec.LeitungID,
			rec.Material,
			rec.Durchmesser,
			rec.XStart,
			rec.YStart,
			rec.XEnd,
			rec.YEnd,
			rec.Verlegedatum,
			rec.Bemerkung,
			string(row.Reason),
			row.Detail,
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write report row %d: %w", rec.RowNumber, err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush report: %w", err)
	}

	return nil
}

// WriteFile writes the report to path. Nothing is written when there are no
// rejected rows, and the previous artifact (if any) is left alone.
func WriteFile(path string, rejected []domain.RejectedRow) error {
	if len(rejected) == 0 {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create error report: %w", err)
	}
	defer f.Close()

	if err := Write(f, rejected); err != nil {
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close error report: %w", err)
	}
	return nil
}
