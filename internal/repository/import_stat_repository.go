package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/werkimport/internal/db"
	"github.com/rpattn/werkimport/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
)

type importStatRepository struct {
	conn *db.Connection
}

// NewImportStatRepository wires the statistics repository backed by the shared pool.
func NewImportStatRepository(conn *db.Connection) ImportStatRepository {
	return &importStatRepository{conn: conn}
}

func (r *importStatRepository) Record(ctx context.Context, summary domain.ImportRunSummary) (int64, error) {
	var bemerkung pgtype.Text
	if summary.Bemerkung != "" {
		bemerkung = pgtype.Text{String: summary.Bemerkung, Valid: true}
	}

	var id int64
	err := r.conn.Pool.QueryRow(
		ctx,
		`SELECT log_import_statistik($1, $2, $3, $4, $5, $6)`,
		summary.Dateiname,
		summary.AnzahlDatensaetze,
		summary.AnzahlErfolgreich,
		summary.AnzahlFehler,
		summary.DauerSekunden,
		bemerkung,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to record import statistics: %w", err)
	}

	return id, nil
}
