package billing

import (
	"context"
	"time"

	"github.com/clinic/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Page is one page of results from the ledger backend
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// PendingDebtAggregate is the backend read model for one patient's
// outstanding debt: the ordered visit list, the union of their service
// lines, and precomputed totals. The totals are display hints only; debts
// are always recomputed from the service lines at allocation time.
type PendingDebtAggregate struct {
	PatientID       uuid.UUID         `json:"patient_id"`
	PatientName     string            `json:"patient_name"`
	VisitIDs        []uuid.UUID       `json:"visit_ids"`
	Services        []ServiceLine     `json:"services"`
	TotalAmount     valueobject.Money `json:"total_amount"`
	RemainingAmount valueobject.Money `json:"remaining_amount"`
}

// PendingQuery filters the pending-debt listing
type PendingQuery struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Search   string
	Page     int
	PageSize int
}

// PaymentQuery filters the payment history listing
type PaymentQuery struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Search   string
	Status   PaymentStatus // empty = all statuses
	Page     int
	PageSize int
}

// CreatePaymentInput is the payload for one ledger create-payment call
type CreatePaymentInput struct {
	VisitID   uuid.UUID         `json:"visit_id"`
	PatientID uuid.UUID         `json:"patient_id"`
	Amount    valueobject.Money `json:"amount"`
	Method    PaymentMethod     `json:"method"`
	Note      string            `json:"note,omitempty"`
}

// RefundResult is the ledger's acknowledgement of a refund
type RefundResult struct {
	RefundedAmount valueobject.Money `json:"refunded_amount"`
}

// Receipt is the printable artifact the ledger renders for a payment
type Receipt struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	Number      string    `json:"number"`
	ContentType string    `json:"content_type"`
	Content     []byte    `json:"content"`
}

// Stats are the backend's pre-aggregated payment totals for a date range
type Stats struct {
	TotalAmount    valueobject.Money `json:"total_amount"`
	CashAmount     valueobject.Money `json:"cash_amount"`
	CardAmount     valueobject.Money `json:"card_amount"`
	PendingAmount  valueobject.Money `json:"pending_amount"`
	PendingCount   int64             `json:"pending_count"`
	PaidCount      int64             `json:"paid_count"`
	CancelledCount int64             `json:"cancelled_count"`
}

// HourlyStat is one hour's payment volume for a target date
type HourlyStat struct {
	Hour   int               `json:"hour"`
	Count  int64             `json:"count"`
	Amount valueobject.Money `json:"amount"`
}

// Ledger is the remote payment ledger this service is a client of. The
// backend is the only source of truth for payment records; this layer never
// assumes exclusive access to it between a debt snapshot and a commit.
type Ledger interface {
	GetPendingPayments(ctx context.Context, q PendingQuery) (*Page[PendingDebtAggregate], error)
	GetPayments(ctx context.Context, q PaymentQuery) (*Page[Payment], error)
	CreatePayment(ctx context.Context, in CreatePaymentInput) (*Payment, error)
	ConfirmPayment(ctx context.Context, paymentID uuid.UUID) (*Payment, error)
	CancelPayment(ctx context.Context, paymentID uuid.UUID, reason string) (*Payment, error)
	RefundPayment(ctx context.Context, paymentID uuid.UUID, amount valueobject.Money, reason string) (*RefundResult, error)
	GetReceipt(ctx context.Context, paymentID uuid.UUID) (*Receipt, error)
	GetStats(ctx context.Context, dateFrom, dateTo *time.Time) (*Stats, error)
	GetHourlyStats(ctx context.Context, targetDate time.Time) ([]HourlyStat, error)
}
