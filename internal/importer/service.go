// Package importer orchestrates one import run: parse the spreadsheet,
// validate every row, load the accepted rows in a single transaction, and
// record the run in the audit table.
//
// Validation and storage are two separate failure channels. A row that fails
// validation is excluded before the transaction ever opens, so garbage rows
// never block good ones. A storage failure rolls back the whole batch, so a
// half-loaded dataset is impossible.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rpattn/werkimport/internal/domain"
	"github.com/rpattn/werkimport/internal/repository"
	"github.com/rpattn/werkimport/internal/validation"

	"github.com/google/uuid"
)

// Service runs import batches against the configured repositories.
type Service struct {
	pipes   repository.WerkleitungRepository
	stats   repository.ImportStatRepository
	workers int
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithWorkers sets the number of concurrent row validators.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates an import service.
func NewService(pipes repository.WerkleitungRepository, stats repository.ImportStatRepository, opts ...Option) *Service {
	s := &Service{
		pipes:   pipes,
		stats:   stats,
		workers: min(runtime.NumCPU(), 8),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result summarizes one completed import run. A run "completes" even when
// every row was rejected; it only fails outright when it could not start
// (unreadable file, schema mismatch, unreachable storage).
type Result struct {
	RunID     uuid.UUID            `json:"run_id"`
	FileName  string               `json:"file_name"`
	TotalRows int                  `json:"total_rows"`
	Accepted  int                  `json:"accepted"`
	Rejected  []domain.RejectedRow `json:"rejected"`
	Duration  time.Duration        `json:"duration"`
}

// RejectedCount returns the number of rejected rows.
func (r Result) RejectedCount() int {
	return len(r.Rejected)
}

// ImportFile opens path and runs Import on its contents.
func (s *Service) ImportFile(ctx context.Context, path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	return s.Import(ctx, filepath.Base(path), f)
}

// Import runs the full pipeline for one file. The returned error is non-nil
// only for run-level failures; row rejections are reported in the Result.
func (s *Service) Import(ctx context.Context, fileName string, data io.Reader) (Result, error) {
	runID := uuid.New()
	started := s.now()

	payload, err := io.ReadAll(data)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read input: %w", err)
	}
	if len(payload) == 0 {
		return Result{}, errors.New("file is empty")
	}

	table, err := parseTable(fileName, payload)
	if err != nil {
		return Result{}, err
	}

	records := table.records()
	log.Printf("[%s] %s: %d data row(s) read", runID, fileName, len(records))

	outcomes := s.validateAll(records)

	var accepted []domain.Werkleitung
	var acceptedRecords []domain.PipeRecord
	var rejected []domain.RejectedRow

	for i, outcome := range outcomes {
		switch outcome.Kind {
		case domain.OutcomeAccepted:
			pipe := outcome.Pipe
			pipe.ImportDatum = started
			accepted = append(accepted, pipe)
			acceptedRecords = append(acceptedRecords, records[i])
		default:
			rejected = append(rejected, outcome.Rejection)
		}
	}

	// Fail-fast duplicate check: within the batch the first occurrence wins,
	// and identifiers already in storage are rejected before the transaction
	// opens. The unique constraint remains the backstop.
	accepted, acceptedRecords, dupRejects, err := s.rejectDuplicates(ctx, accepted, acceptedRecords)
	if err != nil {
		return Result{}, err
	}
	rejected = append(rejected, dupRejects...)

	acceptedCount := len(accepted)
	var runRemark string

	if acceptedCount > 0 {
		if err := s.pipes.InsertBatch(ctx, accepted); err != nil {
			reason := domain.ReasonTransactionAborted
			if errors.Is(err, repository.ErrDuplicateLeitungID) {
				reason = domain.ReasonStorageConflict
			}
			log.Printf("[%s] batch rolled back: %v", runID, err)
			for _, rec := range acceptedRecords {
				rejected = append(rejected, domain.RejectedAtCommit(rec, reason, err.Error()).Rejection)
			}
			acceptedCount = 0
			runRemark = fmt.Sprintf("batch rolled back: %v", err)
		}
	}

	sort.Slice(rejected, func(i, j int) bool {
		return rejected[i].Record.RowNumber < rejected[j].Record.RowNumber
	})

	duration := s.now().Sub(started)

	result := Result{
		RunID:     runID,
		FileName:  fileName,
		TotalRows: len(records),
		Accepted:  acceptedCount,
		Rejected:  rejected,
		Duration:  duration,
	}

	s.recordStatistics(ctx, runID, started, result, runRemark)

	log.Printf("[%s] %s: %d total, %d accepted, %d rejected in %.2fs",
		runID, fileName, result.TotalRows, result.Accepted, result.RejectedCount(), duration.Seconds())

	return result, nil
}

// validateAll fans row validation out over a bounded worker pool. Results are
// written into an index-addressed slice, so output order never depends on
// scheduling.
func (s *Service) validateAll(records []domain.PipeRecord) []domain.RowOutcome {
	outcomes := make([]domain.RowOutcome, len(records))

	workers := s.workers
	if workers > len(records) {
		workers = len(records)
	}
	if workers <= 1 {
		for i, rec := range records {
			outcomes[i] = validation.ValidateRow(rec)
		}
		return outcomes
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = validation.ValidateRow(records[i])
			}
		}()
	}
	for i := range records {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func (s *Service) rejectDuplicates(
	ctx context.Context,
	accepted []domain.Werkleitung,
	acceptedRecords []domain.PipeRecord,
) ([]domain.Werkleitung, []domain.PipeRecord, []domain.RejectedRow, error) {
	if len(accepted) == 0 {
		return accepted, acceptedRecords, nil, nil
	}

	ids := make([]string, len(accepted))
	for i, pipe := range accepted {
		ids[i] = pipe.LeitungID
	}

	existing, err := s.pipes.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to check existing leitung ids: %w", err)
	}

	var keptPipes []domain.Werkleitung
	var keptRecords []domain.PipeRecord
	var rejects []domain.RejectedRow

	firstRow := make(map[string]int, len(accepted))
	for i, pipe := range accepted {
		rec := acceptedRecords[i]
		if existing[pipe.LeitungID] {
			rejects = append(rejects, domain.RejectedAtCommit(rec, domain.ReasonStorageConflict,
				fmt.Sprintf("leitung_id %s already exists in storage", pipe.LeitungID)).Rejection)
			continue
		}
		if prev, seen := firstRow[pipe.LeitungID]; seen {
			rejects = append(rejects, domain.RejectedAtCommit(rec, domain.ReasonStorageConflict,
				fmt.Sprintf("leitung_id %s duplicates row %d in this batch", pipe.LeitungID, prev)).Rejection)
			continue
		}
		firstRow[pipe.LeitungID] = rec.RowNumber
		keptPipes = append(keptPipes, pipe)
		keptRecords = append(keptRecords, rec)
	}

	return keptPipes, keptRecords, rejects, nil
}

// recordStatistics appends the audit row. A failure here is logged and
// swallowed; the import result stands either way.
func (s *Service) recordStatistics(ctx context.Context, runID uuid.UUID, started time.Time, result Result, remark string) {
	if s.stats == nil {
		return
	}

	summary := domain.ImportRunSummary{
		RunID:             runID,
		ImportDatum:       started,
		Dateiname:         result.FileName,
		AnzahlDatensaetze: result.TotalRows,
		AnzahlErfolgreich: result.Accepted,
		AnzahlFehler:      result.RejectedCount(),
		DauerSekunden:     result.Duration.Seconds(),
		Bemerkung:         remark,
	}

	if _, err := s.stats.Record(ctx, summary); err != nil {
		log.Printf("[%s] warning: failed to record import statistics: %v", runID, err)
	}
}
