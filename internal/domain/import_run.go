package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportRunSummary is the append-only audit record written once per import
// invocation, mirroring one row of the import_statistik table.
type ImportRunSummary struct {
	ID                int64     `json:"id"`
	RunID             uuid.UUID `json:"run_id"`
	ImportDatum       time.Time `json:"import_datum"`
	Dateiname         string    `json:"dateiname"`
	AnzahlDatensaetze int       `json:"anzahl_datensaetze"`
	AnzahlErfolgreich int       `json:"anzahl_erfolgreich"`
	AnzahlFehler      int       `json:"anzahl_fehler"`
	DauerSekunden     float64   `json:"dauer_sekunden"`
	Bemerkung         string    `json:"bemerkung,omitempty"`
}
