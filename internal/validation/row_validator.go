// Package validation turns raw spreadsheet rows into storage-ready pipes or
// rejections with a specific reason. It never touches storage; identifier
// uniqueness is handled later, by the importer and the database constraint.
package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/werkimport/internal/domain"
	"github.com/rpattn/werkimport/internal/geometry"
)

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ValidateRow runs the full per-row check sequence and short-circuits on the
// first failure. Check order matters for reporting: a row missing its
// coordinates is a MISSING_FIELD, not an INVALID_COORDINATES.
func ValidateRow(rec domain.PipeRecord) domain.RowOutcome {
	if missing := missingFields(rec); len(missing) > 0 {
		return domain.RejectedAtValidation(rec, domain.ReasonMissingField,
			fmt.Sprintf("missing required field(s): %s", strings.Join(missing, ", ")))
	}

	material := strings.TrimSpace(rec.Material)
	if !domain.ValidMaterial(material) {
		return domain.RejectedAtValidation(rec, domain.ReasonInvalidMaterial,
			fmt.Sprintf("material %q is not in the accepted list", material))
	}

	durchmesser, err := parseDiameter(rec.Durchmesser)
	if err != nil {
		return domain.RejectedAtValidation(rec, domain.ReasonInvalidDiameter, err.Error())
	}

	verlegedatum, err := parseDate(rec.Verlegedatum)
	if err != nil {
		return domain.RejectedAtValidation(rec, domain.ReasonInvalidDate, err.Error())
	}

	start, err := parsePoint(rec.XStart, rec.YStart, "start")
	if err != nil {
		return domain.RejectedAtValidation(rec, domain.ReasonInvalidCoordinates, err.Error())
	}
	end, err := parsePoint(rec.XEnd, rec.YEnd, "end")
	if err != nil {
		return domain.RejectedAtValidation(rec, domain.ReasonInvalidCoordinates, err.Error())
	}

	line, err := geometry.NewLine(start, end)
	if err != nil {
		return domain.RejectedAtValidation(rec, domain.ReasonDegenerateGeometry, err.Error())
	}

	return domain.Accepted(domain.Werkleitung{
		LeitungID:    strings.TrimSpace(rec.LeitungID),
		Material:     domain.Material(material),
		Durchmesser:  durchmesser,
		Verlegedatum: verlegedatum,
		Bemerkung:    strings.TrimSpace(rec.Bemerkung),
		Geom:         line,
	})
}

func missingFields(rec domain.PipeRecord) []string {
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	require("Leitung_ID", rec.LeitungID)
	require("Material", rec.Material)
	require("Durchmesser_mm", rec.Durchmesser)
	require("X_Start", rec.XStart)
	require("Y_Start", rec.YStart)
	require("X_End", rec.XEnd)
	require("Y_End", rec.YEnd)
	return missing
}

func parseDiameter(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	d, err := strconv.Atoi(value)
	if err != nil {
		// Excel likes to render integers as floats; accept lossless ones.
		f, ferr := strconv.ParseFloat(value, 64)
		if ferr != nil || math.Mod(f, 1) != 0 {
			return 0, fmt.Errorf("diameter %q is not an integer", raw)
		}
		d = int(f)
	}
	if d < domain.MinDurchmesserMM || d > domain.MaxDurchmesserMM {
		return 0, fmt.Errorf("diameter %dmm outside range [%d, %d]", d, domain.MinDurchmesserMM, domain.MaxDurchmesserMM)
	}
	return d, nil
}

// parseDate treats an empty Verlegedatum as unknown, which is fine; only a
// present-but-unparseable value is an error.
func parseDate(raw string) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", raw)
}

func parsePoint(rawX, rawY, label string) (geometry.Point, error) {
	x, err := strconv.ParseFloat(strings.TrimSpace(rawX), 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("%s point: X %q is not a number", label, rawX)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(rawY), 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("%s point: Y %q is not a number", label, rawY)
	}
	p := geometry.Point{X: x, Y: y}
	if err := geometry.ValidateLV95(p); err != nil {
		return geometry.Point{}, fmt.Errorf("%s point: %w", label, err)
	}
	return p, nil
}
