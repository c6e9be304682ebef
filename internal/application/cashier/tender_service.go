package cashier

import (
	"context"
	"fmt"

	"github.com/clinic/backend/internal/domain/billing"
	"github.com/clinic/backend/internal/domain/shared"
	"github.com/clinic/backend/internal/domain/shared/valueobject"
	"github.com/clinic/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenderService drives the cashier flow: pick a patient's pending-debt
// aggregate, split the tendered amount across their visits, and commit the
// resulting payments. The aggregate is always re-fetched from the ledger
// right before allocating so debts are computed from a fresh snapshot.
type TenderService struct {
	ledger   billing.Ledger
	payments *PaymentService
	logger   *zap.Logger
}

// NewTenderService creates a new TenderService
func NewTenderService(ledger billing.Ledger, payments *PaymentService, logger *zap.Logger) *TenderService {
	return &TenderService{
		ledger:   ledger,
		payments: payments,
		logger:   logger,
	}
}

// PendingDebts lists patients with outstanding debt
func (s *TenderService) PendingDebts(ctx context.Context, q billing.PendingQuery) (*billing.Page[billing.PendingDebtAggregate], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cashier", "pending_debts")
	defer span.End()

	page, err := s.ledger.GetPendingPayments(ctx, q)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("get pending payments: %w", err)
	}
	return page, nil
}

// TenderRequest is one cashier tender against a patient's outstanding debt
type TenderRequest struct {
	PatientID uuid.UUID
	Tendered  valueobject.Money
	Method    billing.PaymentMethod
	Note      string
}

// TenderPreview shows how a tender would be split without committing it
type TenderPreview struct {
	Patient billing.PendingDebtAggregate `json:"patient"`
	Entries []billing.AllocationEntry    `json:"entries"`
}

// Preview fetches the patient's current pending aggregate and runs the
// allocator without side effects, so the cashier can see the split before
// committing.
func (s *TenderService) Preview(ctx context.Context, req TenderRequest) (*TenderPreview, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cashier", "preview_tender")
	defer span.End()
	telemetry.SetAttributes(span, "patient_id", req.PatientID.String())

	aggregate, err := s.lookupAggregate(ctx, req.PatientID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	entries, err := billing.Allocate(aggregate.VisitIDs, aggregate.Services, req.Tendered)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return &TenderPreview{Patient: *aggregate, Entries: entries}, nil
}

// Tender allocates and commits in one step. The allocation runs against the
// pending aggregate fetched within this call; the commit inherits the
// sequential, non-atomic semantics of PaymentService.Commit, including the
// partial result on mid-stream failure.
func (s *TenderService) Tender(ctx context.Context, req TenderRequest) (*CommitResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cashier", "tender")
	defer span.End()
	telemetry.SetAttributes(span,
		"patient_id", req.PatientID.String(),
		"tendered", req.Tendered.Amount().String(),
	)

	preview, err := s.Preview(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := s.payments.Commit(ctx, CommitRequest{
		PatientID: req.PatientID,
		Entries:   preview.Entries,
		Method:    req.Method,
		Note:      req.Note,
	})
	if err != nil && result == nil {
		return nil, err
	}
	return result, err
}

// lookupAggregate finds the patient's pending-debt aggregate in the ledger's
// pending listing. The search narrows the page server-side; the patient ID
// match below is what actually selects the aggregate.
func (s *TenderService) lookupAggregate(ctx context.Context, patientID uuid.UUID) (*billing.PendingDebtAggregate, error) {
	page, err := s.ledger.GetPendingPayments(ctx, billing.PendingQuery{
		Search:   patientID.String(),
		Page:     1,
		PageSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("get pending payments: %w", err)
	}
	for i := range page.Items {
		if page.Items[i].PatientID == patientID {
			return &page.Items[i], nil
		}
	}
	return nil, shared.NewDomainError("NOT_FOUND",
		fmt.Sprintf("No pending debt found for patient %s", patientID))
}
