// Package testdata generates XLSX fixture files for exercising the importer
// against a real database.
package testdata

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// Zürich city center in LV95, used as the anchor for generated pipes.
const (
	zurichEasting  = 2683000.0
	zurichNorthing = 1248000.0
	scatterRadius  = 5000.0
)

var (
	materials   = []string{"PE", "PVC", "Grauguss", "Stahl", "Asbestzement"}
	diameters   = []int{80, 100, 150, 200, 250, 300, 400}
	remarks     = []string{"Hauptleitung Quartier", "Hausanschluss", "Erneuerung 2020", "Sanierungsbedürftig", "", "Neue Leitung"}
	columnOrder = []string{"Leitung_ID", "Material", "Durchmesser_mm", "X_Start", "Y_Start", "X_End", "Y_End", "Verlegedatum", "Bemerkung"}
)

// Config controls what Generate produces.
type Config struct {
	Records int
	// IncludeErrors appends four known-bad rows: an out-of-range coordinate,
	// a sub-minimum-length line, a missing coordinate, and an invalid date.
	IncludeErrors bool
	Seed          int64
}

// Generate returns spreadsheet rows (header first) for a test file.
func Generate(cfg Config) [][]string {
	rng := rand.New(rand.NewSource(cfg.Seed))

	rows := [][]string{append([]string(nil), columnOrder...)}

	for i := 0; i < cfg.Records; i++ {
		xStart := zurichEasting + (rng.Float64()*2-1)*scatterRadius
		yStart := zurichNorthing + (rng.Float64()*2-1)*scatterRadius

		// Pipe length between 10m and 200m in a random direction.
		length := 10 + rng.Float64()*190
		angle := rng.Float64() * 2 * math.Pi
		xEnd := xStart + length*math.Cos(angle)
		yEnd := yStart + length*math.Sin(angle)

		laid := time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, rng.Intn(27000))

		rows = append(rows, []string{
			fmt.Sprintf("L_%05d", i+1),
			materials[rng.Intn(len(materials))],
			strconv.Itoa(diameters[rng.Intn(len(diameters))]),
			formatCoord(xStart),
			formatCoord(yStart),
			formatCoord(xEnd),
			formatCoord(yEnd),
			laid.Format("2006-01-02"),
			remarks[rng.Intn(len(remarks))],
		})
	}

	if cfg.IncludeErrors {
		rows = append(rows,
			[]string{"L_ERR01", "PE", "100", "1000000", formatCoord(zurichNorthing), formatCoord(zurichEasting + 100), formatCoord(zurichNorthing), "2020-01-01", "coordinate outside LV95"},
			[]string{"L_ERR02", "PVC", "150", formatCoord(zurichEasting), formatCoord(zurichNorthing), formatCoord(zurichEasting + 0.1), formatCoord(zurichNorthing + 0.1), "2020-01-01", "line too short"},
			[]string{"L_ERR03", "Stahl", "200", formatCoord(zurichEasting), formatCoord(zurichNorthing), "", formatCoord(zurichNorthing + 50), "2020-01-01", "missing coordinate"},
			[]string{"L_ERR04", "Grauguss", "100", formatCoord(zurichEasting), formatCoord(zurichNorthing), formatCoord(zurichEasting + 80), formatCoord(zurichNorthing + 60), "32.13.2020", "invalid date"},
		)
	}

	return rows
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteXLSX writes a generated test file to path.
func WriteXLSX(path string, cfg Config) error {
	rows := Generate(cfg)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for idx, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, idx+1)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", idx+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
