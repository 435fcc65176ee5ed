package domain

import (
	"time"

	"github.com/rpattn/werkimport/internal/geometry"
)

// Material is the closed set of pipe materials accepted by the store.
type Material string

const (
	MaterialPE               Material = "PE"
	MaterialPVC              Material = "PVC"
	MaterialGrauguss         Material = "Grauguss"
	MaterialDuktilguss       Material = "Duktilguss"
	MaterialStahl            Material = "Stahl"
	MaterialAsbestzement     Material = "Asbestzement"
	MaterialPolyethylen      Material = "Polyethylen"
	MaterialPolyvinylchlorid Material = "Polyvinylchlorid"
	MaterialUnbekannt        Material = "unbekannt"
)

// Materials lists every accepted material, in the order the schema CHECK declares them.
var Materials = []Material{
	MaterialPE,
	MaterialPVC,
	MaterialGrauguss,
	MaterialDuktilguss,
	MaterialStahl,
	MaterialAsbestzement,
	MaterialPolyethylen,
	MaterialPolyvinylchlorid,
	MaterialUnbekannt,
}

var materialSet = func() map[Material]struct{} {
	set := make(map[Material]struct{}, len(Materials))
	for _, m := range Materials {
		set[m] = struct{}{}
	}
	return set
}()

// ValidMaterial reports whether value is a member of the material enumeration.
func ValidMaterial(value string) bool {
	_, ok := materialSet[Material(value)]
	return ok
}

// Diameter bounds in millimeters, matching the durchmesser CHECK constraint.
const (
	MinDurchmesserMM = 1
	MaxDurchmesserMM = 2000
)

// PipeRecord is one raw spreadsheet row. All fields except RowNumber hold the
// original cell text; parsing and validation happen downstream so that a bad
// cell becomes a rejection reason instead of a crash.
type PipeRecord struct {
	// RowNumber is the 1-based spreadsheet row, header included, so it matches
	// what the user sees when they open the file.
	RowNumber    int    `json:"row_number"`
	LeitungID    string `json:"leitung_id"`
	Material     string `json:"material"`
	Durchmesser  string `json:"durchmesser_mm"`
	XStart       string `json:"x_start"`
	YStart       string `json:"y_start"`
	XEnd         string `json:"x_end"`
	YEnd         string `json:"y_end"`
	Verlegedatum string `json:"verlegedatum"`
	Bemerkung    string `json:"bemerkung"`
}

// Werkleitung is a validated pipe ready for (or read back from) storage.
type Werkleitung struct {
	ID           int64               `json:"id"`
	LeitungID    string              `json:"leitung_id"`
	Material     Material            `json:"material"`
	Durchmesser  int                 `json:"durchmesser"`
	Verlegedatum *time.Time          `json:"verlegedatum,omitempty"`
	Bemerkung    string              `json:"bemerkung"`
	Geom         geometry.LineString `json:"geom"`
	ImportDatum  time.Time           `json:"import_datum"`
	ErstelltAm   time.Time           `json:"erstellt_am"`
}
