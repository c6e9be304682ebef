package billing

import (
	"time"

	"github.com/clinic/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentGroupKey identifies one display-level transaction: all payments a
// single tender produced share the patient and the minute they were created.
type PaymentGroupKey struct {
	PatientID uuid.UUID `json:"patient_id"`
	Minute    time.Time `json:"minute"` // local time, truncated to the minute
}

// PaymentGroup is an ephemeral, display-only merge of payments sharing a
// group key. It is synthesized on every refresh and never persisted.
type PaymentGroup struct {
	Key               PaymentGroupKey   `json:"key"`
	PatientName       string            `json:"patient_name,omitempty"`
	Method            PaymentMethod     `json:"method"`
	Status            PaymentStatus     `json:"status"`
	TotalAmount       valueobject.Money `json:"total_amount"`
	GroupedPaymentIDs []uuid.UUID       `json:"grouped_payment_ids"`
	CreatedAt         time.Time         `json:"created_at"`
}

// groupKey derives the grouping key from a payment's creation timestamp
func groupKey(p Payment) PaymentGroupKey {
	return PaymentGroupKey{
		PatientID: p.PatientID,
		Minute:    p.CreatedAt.Local().Truncate(time.Minute),
	}
}

// GroupPayments merges a page of payments into display-level transactions.
// A tender that the allocator split across several visits produces several
// ledger rows within the same request burst; grouping by patient and
// minute-truncated creation time reconstitutes the cashier's "one
// transaction" view. Display fields come from the first member, input order
// is preserved, and the function is stable and side-effect free.
//
// Grouping only ever sees the page it is given: a tender whose rows straddle
// a page boundary appears as two groups. Callers must not "fix" this by
// over-fetching history.
func GroupPayments(payments []Payment) []PaymentGroup {
	groups := make([]PaymentGroup, 0, len(payments))
	index := make(map[PaymentGroupKey]int, len(payments))

	for _, p := range payments {
		key := groupKey(p)
		if i, ok := index[key]; ok {
			groups[i].TotalAmount = groups[i].TotalAmount.MustAdd(p.Amount)
			groups[i].GroupedPaymentIDs = append(groups[i].GroupedPaymentIDs, p.ID)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, PaymentGroup{
			Key:               key,
			PatientName:       p.PatientName,
			Method:            p.Method,
			Status:            p.Status,
			TotalAmount:       p.Amount,
			GroupedPaymentIDs: []uuid.UUID{p.ID},
			CreatedAt:         p.CreatedAt,
		})
	}

	return groups
}
