package billing

import (
	"github.com/clinic/backend/internal/domain/shared"
	"github.com/clinic/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// AllocationEntry is one slice of a tendered amount applied to a single visit
type AllocationEntry struct {
	VisitID uuid.UUID         `json:"visit_id"`
	Amount  valueobject.Money `json:"amount"`
}

// UnknownVisitID is the synthetic bucket used when a pending-debt aggregate
// carries no visit identifiers. The ledger backend resolves it to the
// patient's open visit.
var UnknownVisitID = uuid.Nil

// Allocate deterministically splits a tendered amount across a patient's
// outstanding visits. Visits are paid in the caller-supplied order, which is
// authoritative: under a partial tender, earlier visits are settled first and
// later visits receive nothing once funds run out.
//
// Debts are recomputed from the given service lines on every call. Any
// surplus beyond the total debt (overpayment, or an advance against visits
// with no billed services) is attributed to the first entry produced, so the
// returned entries always sum to exactly the tendered amount.
//
// Allocate is pure: no I/O, no retained state.
func Allocate(visitIDs []uuid.UUID, services []ServiceLine, tendered valueobject.Money) ([]AllocationEntry, error) {
	if !tendered.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Tendered amount must be positive")
	}
	if len(visitIDs) == 0 {
		// No visit list at all: park the whole tender on the synthetic bucket.
		return []AllocationEntry{{VisitID: UnknownVisitID, Amount: tendered}}, nil
	}

	debts := VisitDebts(services)
	remaining := tendered
	entries := make([]AllocationEntry, 0, len(visitIDs))

	for _, visitID := range visitIDs {
		if remaining.IsZero() {
			break
		}
		debt, ok := debts[visitID]
		if !ok {
			debt = valueobject.ZeroIDR()
		}
		if debt.IsZero() {
			if len(visitIDs) == 1 {
				// Single visit with nothing billed yet: treat the full
				// tender as an advance payment against it.
				entries = append(entries, AllocationEntry{VisitID: visitID, Amount: remaining})
				remaining = valueobject.ZeroIDR()
			}
			continue
		}
		pay := valueobject.Min(remaining, debt)
		entries = append(entries, AllocationEntry{VisitID: visitID, Amount: pay})
		remaining = remaining.MustSubtract(pay)
	}

	if remaining.IsPositive() {
		if len(entries) > 0 {
			entries[0].Amount = entries[0].Amount.MustAdd(remaining)
		} else {
			entries = append(entries, AllocationEntry{VisitID: visitIDs[0], Amount: remaining})
		}
	}

	return entries, nil
}

// AllocationTotal sums the amounts of the given entries
func AllocationTotal(entries []AllocationEntry) valueobject.Money {
	total := valueobject.ZeroIDR()
	for _, e := range entries {
		total = total.MustAdd(e.Amount)
	}
	return total
}
