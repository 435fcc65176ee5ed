package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpattn/werkimport/internal/db"
	"github.com/rpattn/werkimport/internal/domain"
	"github.com/rpattn/werkimport/internal/geometry"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const uniqueViolationCode = "23505"

type werkleitungRepository struct {
	conn *db.Connection
}

// NewWerkleitungRepository wires a repository backed by the shared connection pool.
func NewWerkleitungRepository(conn *db.Connection) WerkleitungRepository {
	return &werkleitungRepository{conn: conn}
}

func (r *werkleitungRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := r.conn.Pool.Query(
		ctx,
		`SELECT leitung_id FROM werkleitungen WHERE leitung_id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing leitung ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan leitung id: %w", err)
		}
		existing[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate existing leitung ids: %w", err)
	}

	return existing, nil
}

func (r *werkleitungRepository) InsertBatch(ctx context.Context, pipes []domain.Werkleitung) error {
	if len(pipes) == 0 {
		return nil
	}

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		for _, pipe := range pipes {
			var verlegedatum pgtype.Date
			if pipe.Verlegedatum != nil {
				verlegedatum = pgtype.Date{Time: *pipe.Verlegedatum, Valid: true}
			}

			_, err := tx.Exec(
				ctx,
				`INSERT INTO werkleitungen
				 (leitung_id, material, durchmesser, verlegedatum, bemerkung, geom, import_datum)
				 VALUES ($1, $2, $3, $4, $5, ST_GeomFromText($6, $7), $8)`,
				pipe.LeitungID,
				string(pipe.Material),
				pipe.Durchmesser,
				verlegedatum,
				pipe.Bemerkung,
				pipe.Geom.WKT(),
				geometry.SRID,
				pipe.ImportDatum,
			)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
					return fmt.Errorf("leitung_id %s: %w", pipe.LeitungID, ErrDuplicateLeitungID)
				}
				return fmt.Errorf("failed to insert werkleitung %s: %w", pipe.LeitungID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

func (r *werkleitungRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.conn.Pool.QueryRow(ctx, `SELECT count(*) FROM werkleitungen`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count werkleitungen: %w", err)
	}
	return count, nil
}
