package cashier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clinic/backend/internal/domain/billing"
	"github.com/clinic/backend/internal/domain/shared"
	"github.com/clinic/backend/internal/domain/shared/valueobject"
	"github.com/clinic/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService manages the lifecycle of ledger payment records: it commits
// allocations and drives the confirm / cancel / refund transitions. All
// consistency here is advisory and optimistic; the remote ledger is the only
// source of truth.
type PaymentService struct {
	ledger  billing.Ledger
	journal CommitJournal
	logger  *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(ledger billing.Ledger, journal CommitJournal, logger *zap.Logger) *PaymentService {
	if journal == nil {
		journal = NoopJournal{}
	}
	return &PaymentService{
		ledger:  ledger,
		journal: journal,
		logger:  logger,
	}
}

// CommitRequest carries one allocation to be persisted as ledger payments
type CommitRequest struct {
	PatientID uuid.UUID
	Entries   []billing.AllocationEntry
	Method    billing.PaymentMethod
	Note      string
}

// CommitResult reports what a commit actually did. Commit is not atomic:
// when a mid-stream create fails, Committed holds the payments that were
// already accepted (they stay committed, there is no rollback), Failed holds
// the entry that was rejected, and Cause holds the ledger error.
type CommitResult struct {
	AttemptID   uuid.UUID         `json:"attempt_id"`
	Committed   []billing.Payment `json:"committed"`
	Failed      *billing.AllocationEntry `json:"failed,omitempty"`
	FailedIndex int               `json:"failed_index,omitempty"`
	Cause       error             `json:"-"`
}

// PartiallyCommitted returns true if some but not all entries were accepted
func (r *CommitResult) PartiallyCommitted() bool {
	return r.Failed != nil && len(r.Committed) > 0
}

// Commit persists one payment record per allocation entry through the
// ledger. The create calls are issued strictly in sequence, each awaited
// before the next: visit debts are a client-side snapshot, and serializing
// reduces the window for double-allocating against a visit whose debt
// changed server-side mid-operation. On the first failure the loop stops;
// already-committed entries remain committed and are reported in the result.
//
// A validation failure returns (nil, err) with no remote call issued. A
// remote failure returns the partial result together with a non-nil error.
func (s *PaymentService) Commit(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cashier", "commit")
	defer span.End()

	if len(req.Entries) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Commit requires at least one allocation entry")
	}
	if req.Method.IsEmpty() {
		return nil, shared.NewDomainError("INVALID_METHOD", "Payment method is required")
	}
	for _, entry := range req.Entries {
		if !entry.Amount.IsPositive() {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Allocation entry amounts must be positive")
		}
	}

	attempt := CommitAttempt{
		ID:        uuid.New(),
		PatientID: req.PatientID,
		Method:    req.Method,
		Note:      req.Note,
		Tendered:  billing.AllocationTotal(req.Entries),
		Entries:   req.Entries,
		StartedAt: time.Now(),
	}
	telemetry.SetAttributes(span,
		"patient_id", req.PatientID.String(),
		"attempt_id", attempt.ID.String(),
		"entry_count", len(req.Entries),
		"tendered", attempt.Tendered.Amount().String(),
	)
	if err := s.journal.Begin(ctx, attempt); err != nil {
		s.logger.Warn("commit journal begin failed",
			zap.String("attempt_id", attempt.ID.String()), zap.Error(err))
	}

	result := &CommitResult{
		AttemptID: attempt.ID,
		Committed: make([]billing.Payment, 0, len(req.Entries)),
	}

	for i, entry := range req.Entries {
		payment, err := s.ledger.CreatePayment(ctx, billing.CreatePaymentInput{
			VisitID:   entry.VisitID,
			PatientID: req.PatientID,
			Amount:    entry.Amount,
			Method:    req.Method,
			Note:      req.Note,
		})
		if err != nil {
			failed := entry
			result.Failed = &failed
			result.FailedIndex = i
			result.Cause = err
			telemetry.RecordError(span, err)
			if jerr := s.journal.RecordEntry(ctx, attempt.ID, i, nil, err); jerr != nil {
				s.logger.Warn("commit journal entry failed", zap.Error(jerr))
			}
			s.finishJournal(ctx, attempt.ID, result)

			s.logger.Error("commit aborted on entry failure",
				zap.String("attempt_id", attempt.ID.String()),
				zap.String("visit_id", entry.VisitID.String()),
				zap.Int("failed_index", i),
				zap.Int("committed_count", len(result.Committed)),
				zap.Error(err))
			return result, fmt.Errorf("create payment for visit %s: %w", entry.VisitID, err)
		}

		result.Committed = append(result.Committed, *payment)
		pid := payment.ID
		if jerr := s.journal.RecordEntry(ctx, attempt.ID, i, &pid, nil); jerr != nil {
			s.logger.Warn("commit journal entry failed", zap.Error(jerr))
		}
	}

	s.finishJournal(ctx, attempt.ID, result)
	s.logger.Info("commit completed",
		zap.String("attempt_id", attempt.ID.String()),
		zap.String("patient_id", req.PatientID.String()),
		zap.Int("payment_count", len(result.Committed)),
		zap.String("tendered", attempt.Tendered.Amount().String()))
	return result, nil
}

func (s *PaymentService) finishJournal(ctx context.Context, attemptID uuid.UUID, result *CommitResult) {
	outcome := CommitOutcomeCommitted
	if result.Failed != nil {
		outcome = CommitOutcomeFailed
		if len(result.Committed) > 0 {
			outcome = CommitOutcomePartial
		}
	}
	if err := s.journal.Finish(ctx, attemptID, outcome); err != nil {
		s.logger.Warn("commit journal finish failed",
			zap.String("attempt_id", attemptID.String()), zap.Error(err))
	}
}

// Confirm transitions a payment toward paid. State conflicts (not found,
// already terminal) are rejected by the ledger and propagated unchanged.
func (s *PaymentService) Confirm(ctx context.Context, paymentID uuid.UUID) (*billing.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cashier", "confirm_payment")
	defer span.End()
	telemetry.SetAttributes(span, "payment_id", paymentID.String())

	payment, err := s.ledger.ConfirmPayment(ctx, paymentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("confirm payment %s: %w", paymentID, err)
	}
	return payment, nil
}

// Cancel voids a payment. Valid from any non-terminal state; the resulting
// cancelled status is terminal. The reason is optional free text.
func (s *PaymentService) Cancel(ctx context.Context, paymentID uuid.UUID, reason string) (*billing.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cashier", "cancel_payment")
	defer span.End()
	telemetry.SetAttributes(span, "payment_id", paymentID.String())

	payment, err := s.ledger.CancelPayment(ctx, paymentID, strings.TrimSpace(reason))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("cancel payment %s: %w", paymentID, err)
	}
	return payment, nil
}

// RefundRequest carries the parameters of a refund. Snapshot, when present,
// is the payment row the cashier screen holds; it allows the remaining-
// balance guard to run before the remote call instead of after it.
type RefundRequest struct {
	Amount   valueobject.Money
	Reason   string
	Snapshot *billing.Payment
}

// Refund applies a partial or full refund. All preconditions that can be
// checked client-side are checked before any remote call: a non-positive
// amount or a reason shorter than three characters never reaches the wire.
func (s *PaymentService) Refund(ctx context.Context, paymentID uuid.UUID, req RefundRequest) (*billing.RefundResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cashier", "refund_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		"payment_id", paymentID.String(),
		"amount", req.Amount.Amount().String(),
	)

	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Refund amount must be positive")
	}
	if len(strings.TrimSpace(req.Reason)) < billing.MinRefundReasonLength {
		return nil, shared.NewDomainError("INVALID_REASON",
			fmt.Sprintf("Refund reason must be at least %d characters", billing.MinRefundReasonLength))
	}
	if req.Snapshot != nil {
		if err := req.Snapshot.ValidateRefund(req.Amount, req.Reason); err != nil {
			return nil, err
		}
	}

	result, err := s.ledger.RefundPayment(ctx, paymentID, req.Amount, req.Reason)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("refund payment %s: %w", paymentID, err)
	}

	s.logger.Info("payment refunded",
		zap.String("payment_id", paymentID.String()),
		zap.String("amount", req.Amount.Amount().String()))
	return result, nil
}

// History returns one page of payment history together with its grouped
// display view. Grouping covers only the returned page; a tender whose rows
// straddle a page boundary shows up as two groups (see billing.GroupPayments).
func (s *PaymentService) History(ctx context.Context, q billing.PaymentQuery) (*billing.Page[billing.Payment], []billing.PaymentGroup, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cashier", "payment_history")
	defer span.End()

	page, err := s.ledger.GetPayments(ctx, q)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, fmt.Errorf("get payments: %w", err)
	}
	return page, billing.GroupPayments(page.Items), nil
}
