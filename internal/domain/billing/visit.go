package billing

import (
	"github.com/clinic/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Visit represents a billable clinical encounter. Visits are created by the
// registration flow upstream and are read-only in this service.
type Visit struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
}

// ServiceLine is a priced, quantified line item attributable to exactly one visit
type ServiceLine struct {
	VisitID   uuid.UUID         `json:"visit_id"`
	Name      string            `json:"name"`
	UnitPrice valueobject.Money `json:"unit_price"`
	Quantity  int64             `json:"quantity"`
}

// Subtotal returns the line's contribution to its visit's debt
func (s ServiceLine) Subtotal() valueobject.Money {
	qty := s.Quantity
	if qty < 1 {
		qty = 1
	}
	return s.UnitPrice.MultiplyByInt(qty)
}

// VisitDebts computes the outstanding debt per visit from the current service
// lines. Debt is always recomputed at allocation time from the lines the
// caller passes in; it is never cached across calls.
func VisitDebts(services []ServiceLine) map[uuid.UUID]valueobject.Money {
	debts := make(map[uuid.UUID]valueobject.Money, len(services))
	for _, line := range services {
		current, ok := debts[line.VisitID]
		if !ok {
			current = valueobject.ZeroIDR()
		}
		debts[line.VisitID] = current.MustAdd(line.Subtotal())
	}
	return debts
}
