package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rpattn/werkimport/internal/domain"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned when the input file is not CSV or XLSX.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrSchemaMismatch is returned when a required column is absent from the
	// header row. This aborts the run before any row is validated; it is a
	// different failure from a run whose rows all fail validation.
	ErrSchemaMismatch = errors.New("schema mismatch")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// Input column names, as documented for the spreadsheet contract.
const (
	colLeitungID    = "Leitung_ID"
	colMaterial     = "Material"
	colDurchmesser  = "Durchmesser_mm"
	colXStart       = "X_Start"
	colYStart       = "Y_Start"
	colXEnd         = "X_End"
	colYEnd         = "Y_End"
	colVerlegedatum = "Verlegedatum"
	colBemerkung    = "Bemerkung"
)

var requiredColumns = []string{
	colLeitungID, colMaterial, colDurchmesser,
	colXStart, colYStart, colXEnd, colYEnd,
	colVerlegedatum,
}

type tableData struct {
	columns        map[string]int
	rows           [][]string
	headerRowIndex int
}

func parseTable(fileName string, payload []byte) (tableData, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return tableData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read csv: %w", err)
	}

	return normalizeTable(records)
}

func parseExcel(payload []byte) (tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return tableData{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tableData{}, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	return normalizeTable(rows)
}

// normalizeTable locates the header row (the first non-empty one), maps the
// documented column names to indexes, and keeps every non-empty data row.
// A missing required column fails the whole file with ErrSchemaMismatch.
func normalizeTable(records [][]string) (tableData, error) {
	if len(records) == 0 {
		return tableData{}, errors.New("no rows found in file")
	}

	var headerRow []string
	var dataRows [][]string
	headerIndex := -1

	for idx, row := range records {
		if rowEmpty(row) {
			continue
		}
		if headerRow == nil {
			headerRow = row
			headerIndex = idx
			continue
		}
		dataRows = append(dataRows, row)
	}

	if headerRow == nil {
		return tableData{}, errors.New("header row could not be detected")
	}

	columns := make(map[string]int, len(headerRow))
	for idx, value := range headerRow {
		name := strings.TrimSpace(value)
		if name == "" {
			continue
		}
		if _, exists := columns[name]; !exists {
			columns[name] = idx
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return tableData{}, fmt.Errorf("%w: missing column(s) %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}

	return tableData{
		columns:        columns,
		rows:           dataRows,
		headerRowIndex: headerIndex,
	}, nil
}

// records converts the raw rows into PipeRecords. Row numbers are 1-based and
// include the header so they match the spreadsheet the user is looking at.
func (t tableData) records() []domain.PipeRecord {
	out := make([]domain.PipeRecord, len(t.rows))
	for idx, row := range t.rows {
		cell := func(name string) string {
			col, ok := t.columns[name]
			if !ok || col >= len(row) {
				return ""
			}
			return row[col]
		}
		out[idx] = domain.PipeRecord{
			RowNumber:    t.headerRowIndex + idx + 2,
			LeitungID:    cell(colLeitungID),
			Material:     cell(colMaterial),
			Durchmesser:  cell(colDurchmesser),
			XStart:       cell(colXStart),
			YStart:       cell(colYStart),
			XEnd:         cell(colXEnd),
			YEnd:         cell(colYEnd),
			Verlegedatum: cell(colVerlegedatum),
			Bemerkung:    cell(colBemerkung),
		}
	}
	return out
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
