package billing

import (
	"math/rand"
	"testing"

	"github.com/clinic/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serviceLine(visitID uuid.UUID, unitPrice, qty int64) ServiceLine {
	return ServiceLine{
		VisitID:   visitID,
		Name:      "Consultation",
		UnitPrice: valueobject.NewMoneyIDR(unitPrice),
		Quantity:  qty,
	}
}

func TestAllocate_ExactCover(t *testing.T) {
	visitA := uuid.New()
	visitB := uuid.New()
	services := []ServiceLine{
		serviceLine(visitA, 50000, 1),
		serviceLine(visitB, 30000, 1),
	}

	entries, err := Allocate([]uuid.UUID{visitA, visitB}, services, valueobject.NewMoneyIDR(80000))
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, visitA, entries[0].VisitID)
	assert.Equal(t, int64(50000), entries[0].Amount.Int64())
	assert.Equal(t, visitB, entries[1].VisitID)
	assert.Equal(t, int64(30000), entries[1].Amount.Int64())
}

func TestAllocate_PartialTenderPaysEarlierVisitsFirst(t *testing.T) {
	visitA := uuid.New()
	visitB := uuid.New()
	services := []ServiceLine{
		serviceLine(visitA, 50000, 1),
		serviceLine(visitB, 30000, 1),
	}

	entries, err := Allocate([]uuid.UUID{visitA, visitB}, services, valueobject.NewMoneyIDR(40000))
	require.NoError(t, err)

	// Funds exhaust on the first visit; the second must receive nothing.
	require.Len(t, entries, 1)
	assert.Equal(t, visitA, entries[0].VisitID)
	assert.Equal(t, int64(40000), entries[0].Amount.Int64())
}

func TestAllocate_OrderIsAuthoritative(t *testing.T) {
	visitA := uuid.New()
	visitB := uuid.New()
	services := []ServiceLine{
		serviceLine(visitA, 50000, 1),
		serviceLine(visitB, 30000, 1),
	}

	// Same visits, reversed order: B now gets paid first.
	entries, err := Allocate([]uuid.UUID{visitB, visitA}, services, valueobject.NewMoneyIDR(40000))
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, visitB, entries[0].VisitID)
	assert.Equal(t, int64(30000), entries[0].Amount.Int64())
	assert.Equal(t, visitA, entries[1].VisitID)
	assert.Equal(t, int64(10000), entries[1].Amount.Int64())
}

func TestAllocate_OverpaymentSurplusGoesToFirstEntry(t *testing.T) {
	visitA := uuid.New()
	visitB := uuid.New()
	services := []ServiceLine{
		serviceLine(visitA, 50000, 1),
		serviceLine(visitB, 30000, 1),
	}

	entries, err := Allocate([]uuid.UUID{visitA, visitB}, services, valueobject.NewMoneyIDR(100000))
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, visitA, entries[0].VisitID)
	assert.Equal(t, int64(70000), entries[0].Amount.Int64())
	assert.Equal(t, visitB, entries[1].VisitID)
	assert.Equal(t, int64(30000), entries[1].Amount.Int64())
}

func TestAllocate_ZeroDebtSingleVisitTakesAdvance(t *testing.T) {
	visitA := uuid.New()

	entries, err := Allocate([]uuid.UUID{visitA}, nil, valueobject.NewMoneyIDR(25000))
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, visitA, entries[0].VisitID)
	assert.Equal(t, int64(25000), entries[0].Amount.Int64())
}

func TestAllocate_ZeroDebtMultiVisitFallsBackToFirstVisit(t *testing.T) {
	visitA := uuid.New()
	visitB := uuid.New()

	entries, err := Allocate([]uuid.UUID{visitA, visitB}, nil, valueobject.NewMoneyIDR(25000))
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, visitA, entries[0].VisitID)
	assert.Equal(t, int64(25000), entries[0].Amount.Int64())
}

func TestAllocate_EmptyVisitListUsesUnknownBucket(t *testing.T) {
	entries, err := Allocate(nil, nil, valueobject.NewMoneyIDR(10000))
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, UnknownVisitID, entries[0].VisitID)
	assert.Equal(t, int64(10000), entries[0].Amount.Int64())
}

func TestAllocate_NonPositiveTenderRejected(t *testing.T) {
	visitA := uuid.New()

	_, err := Allocate([]uuid.UUID{visitA}, nil, valueobject.ZeroIDR())
	assert.Error(t, err)

	_, err = Allocate([]uuid.UUID{visitA}, nil, valueobject.NewMoneyIDR(-100))
	assert.Error(t, err)
}

func TestAllocate_QuantityMultipliesDebt(t *testing.T) {
	visitA := uuid.New()
	services := []ServiceLine{
		serviceLine(visitA, 15000, 3),
	}

	entries, err := Allocate([]uuid.UUID{visitA}, services, valueobject.NewMoneyIDR(45000))
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, int64(45000), entries[0].Amount.Int64())
}

// Conservation property: for any mix of debts and tender, the produced
// entries sum to exactly the tendered amount.
func TestAllocate_ConservationProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for range 500 {
		visitCount := 1 + rng.Intn(5)
		visitIDs := make([]uuid.UUID, visitCount)
		services := make([]ServiceLine, 0, visitCount)
		totalDebt := int64(0)

		for i := range visitCount {
			visitIDs[i] = uuid.New()
			// Some visits deliberately carry no services at all.
			if rng.Intn(4) == 0 {
				continue
			}
			price := int64(1 + rng.Intn(100000))
			qty := int64(1 + rng.Intn(4))
			services = append(services, serviceLine(visitIDs[i], price, qty))
			totalDebt += price * qty
		}

		// Tender anywhere from underpayment to well past the total debt.
		tender := int64(1 + rng.Intn(int(totalDebt)+50000))

		entries, err := Allocate(visitIDs, services, valueobject.NewMoneyIDR(tender))
		require.NoError(t, err)
		require.NotEmpty(t, entries)

		assert.Equal(t, tender, AllocationTotal(entries).Int64(),
			"allocation must conserve the tendered amount exactly")
		for _, e := range entries {
			assert.True(t, e.Amount.IsPositive(), "no zero or negative entries")
		}
	}
}

func TestVisitDebts(t *testing.T) {
	visitA := uuid.New()
	visitB := uuid.New()

	t.Run("sums contributions per visit", func(t *testing.T) {
		debts := VisitDebts([]ServiceLine{
			serviceLine(visitA, 20000, 2),
			serviceLine(visitA, 5000, 1),
			serviceLine(visitB, 30000, 1),
		})
		assert.Equal(t, int64(45000), debts[visitA].Int64())
		assert.Equal(t, int64(30000), debts[visitB].Int64())
	})

	t.Run("empty input yields empty map", func(t *testing.T) {
		assert.Empty(t, VisitDebts(nil))
	})

	t.Run("quantity below one counts as one", func(t *testing.T) {
		debts := VisitDebts([]ServiceLine{
			{VisitID: visitA, UnitPrice: valueobject.NewMoneyIDR(10000), Quantity: 0},
		})
		assert.Equal(t, int64(10000), debts[visitA].Int64())
	})

	t.Run("line without unit price counts as zero", func(t *testing.T) {
		// a decoded service line may omit unit_price entirely
		debts := VisitDebts([]ServiceLine{
			{VisitID: visitA, Name: "Consultation", Quantity: 1},
			serviceLine(visitA, 25000, 1),
		})
		assert.Equal(t, int64(25000), debts[visitA].Int64())
	})
}
