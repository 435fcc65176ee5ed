package domain

// RejectReason identifies why a row was excluded from the import.
type RejectReason string

const (
	ReasonMissingField       RejectReason = "MISSING_FIELD"
	ReasonInvalidMaterial    RejectReason = "INVALID_MATERIAL"
	ReasonInvalidDiameter    RejectReason = "INVALID_DIAMETER"
	ReasonInvalidDate        RejectReason = "INVALID_DATE"
	ReasonInvalidCoordinates RejectReason = "INVALID_COORDINATES"
	ReasonDegenerateGeometry RejectReason = "DEGENERATE_GEOMETRY"
	ReasonStorageConflict    RejectReason = "STORAGE_CONFLICT"
	ReasonTransactionAborted RejectReason = "TRANSACTION_ABORTED"
)

// RejectedRow pairs a rejected input row with the reason it was excluded.
// Detail carries the human-readable explanation for the error report.
type RejectedRow struct {
	Record PipeRecord   `json:"record"`
	Reason RejectReason `json:"reason"`
	Detail string       `json:"detail"`
}

// OutcomeKind distinguishes the two failure channels from acceptance.
type OutcomeKind int

const (
	OutcomeAccepted OutcomeKind = iota
	OutcomeRejectedAtValidation
	OutcomeRejectedAtCommit
)

// RowOutcome is the result of pushing one PipeRecord through validation and,
// for accepted rows, the storage phase. Exactly one of Pipe or Rejection is
// meaningful: Pipe when Kind is OutcomeAccepted, Rejection otherwise.
type RowOutcome struct {
	Kind      OutcomeKind
	Pipe      Werkleitung
	Rejection RejectedRow
}

// Accepted builds an accepted outcome.
func Accepted(pipe Werkleitung) RowOutcome {
	return RowOutcome{Kind: OutcomeAccepted, Pipe: pipe}
}

// RejectedAtValidation builds a validation-phase rejection.
func RejectedAtValidation(rec PipeRecord, reason RejectReason, detail string) RowOutcome {
	return RowOutcome{
		Kind:      OutcomeRejectedAtValidation,
		Rejection: RejectedRow{Record: rec, Reason: reason, Detail: detail},
	}
}

// RejectedAtCommit builds a storage-phase rejection. Rows end up here when the
// batch transaction rolls back or a duplicate identifier is detected.
func RejectedAtCommit(rec PipeRecord, reason RejectReason, detail string) RowOutcome {
	return RowOutcome{
		Kind:      OutcomeRejectedAtCommit,
		Rejection: RejectedRow{Record: rec, Reason: reason, Detail: detail},
	}
}
