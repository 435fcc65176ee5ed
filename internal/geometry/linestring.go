// Package geometry builds and validates LV95 (EPSG:2056) line geometries for
// pipe segments. Range checking and line construction are kept separate so a
// coordinate outside the Swiss envelope reports as a coordinate error, not a
// geometry error.
package geometry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SRID of the Swiss LV95 projected coordinate reference system.
const SRID = 2056

// LV95 bounding envelope. Easting runs west-east, northing south-north.
const (
	MinEasting  = 2480000.0
	MaxEasting  = 2840000.0
	MinNorthing = 1070000.0
	MaxNorthing = 1300000.0
)

// MinLineLength is the shortest pipe segment accepted, in meters. Anything
// shorter is almost certainly a data-entry mistake.
const MinLineLength = 0.5

// ErrDegenerateGeometry is returned when a line's endpoints coincide or lie
// closer together than MinLineLength.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// Point is a coordinate pair in the LV95 plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ValidateLV95 checks that p falls inside the LV95 envelope. It returns nil
// when the point is plausible Swiss territory and a descriptive error
// otherwise.
func ValidateLV95(p Point) error {
	if p.X < MinEasting || p.X > MaxEasting {
		return fmt.Errorf("easting %s outside LV95 range [%d, %d]",
			formatCoord(p.X), int(MinEasting), int(MaxEasting))
	}
	if p.Y < MinNorthing || p.Y > MaxNorthing {
		return fmt.Errorf("northing %s outside LV95 range [%d, %d]",
			formatCoord(p.Y), int(MinNorthing), int(MaxNorthing))
	}
	return nil
}

// LineString is a two-point line in the LV95 plane.
type LineString struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// NewLine constructs the segment from start to end. It does not range-check
// the points; callers validate them with ValidateLV95 first. It fails with
// ErrDegenerateGeometry when the segment is shorter than MinLineLength.
func NewLine(start, end Point) (LineString, error) {
	line := LineString{Start: start, End: end}
	if start == end {
		return LineString{}, fmt.Errorf("%w: start and end coincide at %s", ErrDegenerateGeometry, formatPoint(start))
	}
	if length := line.Length(); length < MinLineLength {
		return LineString{}, fmt.Errorf("%w: length %.2fm below minimum %.1fm", ErrDegenerateGeometry, length, MinLineLength)
	}
	return line, nil
}

// Length returns the Euclidean length of the segment in meters.
func (l LineString) Length() float64 {
	return math.Hypot(l.End.X-l.Start.X, l.End.Y-l.Start.Y)
}

// WKT renders the line as well-known text, suitable for ST_GeomFromText.
func (l LineString) WKT() string {
	var b strings.Builder
	b.WriteString("LINESTRING(")
	b.WriteString(formatPoint(l.Start))
	b.WriteString(", ")
	b.WriteString(formatPoint(l.End))
	b.WriteString(")")
	return b.String()
}

func formatPoint(p Point) string {
	return formatCoord(p.X) + " " + formatCoord(p.Y)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
