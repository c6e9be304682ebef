package cashier

import (
	"context"
	"time"

	"github.com/clinic/backend/internal/domain/billing"
	"github.com/clinic/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// CommitOutcome is the final state of a journaled commit attempt
type CommitOutcome string

const (
	CommitOutcomeCommitted CommitOutcome = "committed" // every entry was accepted
	CommitOutcomePartial   CommitOutcome = "partial"   // stopped on a mid-stream failure
	CommitOutcomeFailed    CommitOutcome = "failed"    // first entry already failed
)

// CommitAttempt is the journal header for one multi-visit commit
type CommitAttempt struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	Method    billing.PaymentMethod
	Note      string
	Tendered  valueobject.Money
	Entries   []billing.AllocationEntry
	StartedAt time.Time
}

// CommitJournal records commit attempts and their per-entry outcomes locally,
// so a tender that failed partway through remains reconstructible even if
// the process dies before the failure is reported. The journal is advisory:
// write failures are logged and never abort a commit.
type CommitJournal interface {
	// Begin records the attempt header with all entries pending
	Begin(ctx context.Context, attempt CommitAttempt) error
	// RecordEntry records the outcome of one entry; paymentID is set on
	// success, entryErr on failure
	RecordEntry(ctx context.Context, attemptID uuid.UUID, index int, paymentID *uuid.UUID, entryErr error) error
	// Finish seals the attempt with its final outcome
	Finish(ctx context.Context, attemptID uuid.UUID, outcome CommitOutcome) error
}

// NoopJournal satisfies CommitJournal without recording anything
type NoopJournal struct{}

func (NoopJournal) Begin(context.Context, CommitAttempt) error { return nil }
func (NoopJournal) RecordEntry(context.Context, uuid.UUID, int, *uuid.UUID, error) error {
	return nil
}
func (NoopJournal) Finish(context.Context, uuid.UUID, CommitOutcome) error { return nil }
