package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/clinic/backend/internal/domain/shared"
	"github.com/clinic/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentStatus represents the lifecycle status of a payment record
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // Created, awaiting confirmation
	PaymentStatusPaid      PaymentStatus = "paid"      // Confirmed and settled
	PaymentStatusPartial   PaymentStatus = "partial"   // Settled for part of the visit debt
	PaymentStatusCancelled PaymentStatus = "cancelled" // Voided by the cashier, terminal
	PaymentStatusRefunded  PaymentStatus = "refunded"  // Fully refunded, terminal
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusPartial,
		PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are permitted
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCancelled || s == PaymentStatusRefunded
}

// PaymentMethod identifies how the patient paid. Cash and card are the
// methods the cashier UI offers; the ledger backend may define further tags
// which pass through unchanged.
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
)

// IsEmpty returns true if no method was given
func (m PaymentMethod) IsEmpty() bool {
	return strings.TrimSpace(string(m)) == ""
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// MinRefundReasonLength is the minimum length of a refund reason
const MinRefundReasonLength = 3

// Payment is a ledger record representing money applied to a single visit.
// The ledger backend owns the record; this type carries its client-side view
// and enforces the state machine guards before any remote call is attempted.
type Payment struct {
	ID             uuid.UUID         `json:"id"`
	VisitID        uuid.UUID         `json:"visit_id"`
	PatientID      uuid.UUID         `json:"patient_id"`
	PatientName    string            `json:"patient_name,omitempty"`
	Amount         valueobject.Money `json:"amount"`
	Method         PaymentMethod     `json:"method"`
	Note           string            `json:"note,omitempty"`
	Status         PaymentStatus     `json:"status"`
	RefundedAmount valueobject.Money `json:"refunded_amount"`
	CreatedAt      time.Time         `json:"created_at"`
}

// RemainingRefundable returns the amount still eligible for refund
func (p *Payment) RemainingRefundable() valueobject.Money {
	return p.Amount.MustSubtract(p.RefundedAmount)
}

// CanConfirm reports whether a confirm transition is permitted
func (p *Payment) CanConfirm() error {
	if p.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot confirm payment in %s status", p.Status))
	}
	return nil
}

// CanCancel reports whether a cancel transition is permitted.
// Cancellation is allowed from any non-terminal state and is itself terminal.
func (p *Payment) CanCancel() error {
	if p.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel payment in %s status", p.Status))
	}
	return nil
}

// ValidateRefund checks the refund preconditions without touching state.
// These guards run client-side, before any remote call is issued.
func (p *Payment) ValidateRefund(amount valueobject.Money, reason string) error {
	if p.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot refund payment in %s status", p.Status))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Refund amount must be positive")
	}
	if exceeds, err := amount.GreaterThan(p.RemainingRefundable()); err != nil || exceeds {
		return shared.NewDomainError("EXCEEDS_REFUNDABLE",
			fmt.Sprintf("Refund amount %s exceeds refundable amount %s",
				amount.Amount().String(), p.RemainingRefundable().Amount().String()))
	}
	if len(strings.TrimSpace(reason)) < MinRefundReasonLength {
		return shared.NewDomainError("INVALID_REASON",
			fmt.Sprintf("Refund reason must be at least %d characters", MinRefundReasonLength))
	}
	return nil
}

// ApplyRefund records a refund the ledger accepted. RefundedAmount grows by
// the refunded amount; a fully refunded payment becomes terminal.
func (p *Payment) ApplyRefund(amount valueobject.Money) error {
	if p.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot refund payment in %s status", p.Status))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Refund amount must be positive")
	}
	if exceeds, err := amount.GreaterThan(p.RemainingRefundable()); err != nil || exceeds {
		return shared.NewDomainError("EXCEEDS_REFUNDABLE",
			fmt.Sprintf("Refund amount %s exceeds refundable amount %s",
				amount.Amount().String(), p.RemainingRefundable().Amount().String()))
	}
	p.RefundedAmount = p.RefundedAmount.MustAdd(amount)
	if p.RefundedAmount.Equals(p.Amount) {
		p.Status = PaymentStatusRefunded
	}
	return nil
}

// MarkConfirmed applies a confirmed transition reported by the ledger
func (p *Payment) MarkConfirmed() error {
	if err := p.CanConfirm(); err != nil {
		return err
	}
	p.Status = PaymentStatusPaid
	return nil
}

// MarkCancelled applies a cancel transition reported by the ledger
func (p *Payment) MarkCancelled() error {
	if err := p.CanCancel(); err != nil {
		return err
	}
	p.Status = PaymentStatusCancelled
	return nil
}
