package repository

import (
	"context"
	"errors"

	"github.com/rpattn/werkimport/internal/domain"
)

// ErrDuplicateLeitungID is returned (wrapped) when an insert trips the unique
// constraint on werkleitungen.leitung_id.
var ErrDuplicateLeitungID = errors.New("duplicate leitung_id")

// WerkleitungRepository defines the storage operations the importer needs.
type WerkleitungRepository interface {
	// ExistingIDs reports which of the given identifiers are already stored.
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	// InsertBatch writes all pipes inside a single transaction. Either every
	// pipe is committed or none is.
	InsertBatch(ctx context.Context, pipes []domain.Werkleitung) error
	// Count returns the number of stored pipes.
	Count(ctx context.Context) (int64, error)
}

// ImportStatRepository appends one audit row per import run.
type ImportStatRepository interface {
	// Record writes the summary via the log_import_statistik function and
	// returns the generated row id.
	Record(ctx context.Context, summary domain.ImportRunSummary) (int64, error)
}
