package importer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rpattn/werkimport/internal/domain"
	"github.com/rpattn/werkimport/internal/report"

	"github.com/xuri/excelize/v2"
)

func TestParseCSVWithByteOrderMark(t *testing.T) {
	data := "\xEF\xBB\xBF" + csvHeader + validCSVRow("L_00001", 0)

	table, err := parseTable("leitungen.csv", []byte(data))
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if len(table.rows) != 1 {
		t.Fatalf("expected 1 data row, got %d", len(table.rows))
	}
	if _, ok := table.columns["Leitung_ID"]; !ok {
		t.Fatalf("BOM not stripped from first header, columns: %v", table.columns)
	}
}

func TestParseTableSkipsLeadingEmptyRows(t *testing.T) {
	data := ",,,,,,,,\n" + csvHeader + validCSVRow("L_00001", 0)

	table, err := parseTable("leitungen.csv", []byte(data))
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}

	records := table.records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	// Header sits on spreadsheet row 2, so the data row is row 3.
	if records[0].RowNumber != 3 {
		t.Fatalf("expected row number 3, got %d", records[0].RowNumber)
	}
}

func TestParseTableMissingColumn(t *testing.T) {
	data := "Leitung_ID,Material,X_Start,Y_Start,X_End,Y_End,Verlegedatum\nL_1,PE,1,2,3,4,\n"

	_, err := parseTable("leitungen.csv", []byte(data))
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestParseTableBemerkungOptional(t *testing.T) {
	data := "Leitung_ID,Material,Durchmesser_mm,X_Start,Y_Start,X_End,Y_End,Verlegedatum\n" +
		"L_00001,PE,150,2600000.0,1200000.0,2600100.0,1200000.0,2020-01-15\n"

	table, err := parseTable("leitungen.csv", []byte(data))
	if err != nil {
		t.Fatalf("expected Bemerkung to be optional, got %v", err)
	}

	records := table.records()
	if records[0].Bemerkung != "" {
		t.Fatalf("expected empty bemerkung, got %q", records[0].Bemerkung)
	}
}

// The error report must be re-submittable: its data columns carry the input
// contract's names, and the extra columns are ignored by the parser.
func TestErrorReportIsReimportable(t *testing.T) {
	rejected := []domain.RejectedRow{
		{
			Record: domain.PipeRecord{
				RowNumber:   2,
				LeitungID:   "L_00001",
				Material:    "Beton",
				Durchmesser: "150",
				XStart:      "2600000.0",
				YStart:      "1200000.0",
				XEnd:        "2600100.0",
				YEnd:        "1200000.0",
			},
			Reason: domain.ReasonInvalidMaterial,
			Detail: "material not accepted",
		},
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, rejected); err != nil {
		t.Fatalf("failed to write report: %v", err)
	}

	table, err := parseTable("leitungen_fehler.csv", buf.Bytes())
	if err != nil {
		t.Fatalf("report not parseable by the importer: %v", err)
	}

	records := table.records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].LeitungID != "L_00001" || records[0].Material != "Beton" {
		t.Fatalf("original values lost on round trip: %+v", records[0])
	}
}

func TestParseExcelRoundTrip(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	header := strings.Split(strings.TrimSpace(csvHeader), ",")
	row := strings.Split(strings.TrimSpace(validCSVRow("L_00001", 0)), ",")

	for i, value := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellStr(sheet, cell, value); err != nil {
			t.Fatalf("failed to set header cell: %v", err)
		}
	}
	for i, value := range row {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellStr(sheet, cell, value); err != nil {
			t.Fatalf("failed to set data cell: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("failed to serialize workbook: %v", err)
	}

	table, err := parseTable("leitungen.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}

	records := table.records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].LeitungID != "L_00001" {
		t.Fatalf("unexpected leitung id %q", records[0].LeitungID)
	}
	if records[0].RowNumber != 2 {
		t.Fatalf("expected row number 2, got %d", records[0].RowNumber)
	}
}
