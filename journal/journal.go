// Package journal records ledger submission attempts locally. The on-chain
// account only ever shows confirmed appends; the journal keeps the rejected
// and timed-out attempts too, which is what you want when auditing a session.
package journal

import "time"

// SubmissionRecord is one submission attempt and its terminal outcome.
type SubmissionRecord struct {
	AttemptID   string // ULID, time-sortable
	Item        string
	Price       string
	BlockTime   int64  // network time stamped into the instruction
	State       string // final pipeline state: confirmed, rejected, timed_out, ...
	TxID        string // transaction signature, empty if never sent
	Reason      string // rejection reason, empty otherwise
	SubmittedAt time.Time
}

// Journal persists submission records.
type Journal interface {
	RecordSubmission(SubmissionRecord) error
	ListSubmissions(limit int) ([]SubmissionRecord, error)
	Close() error
}
