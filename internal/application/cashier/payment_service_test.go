package cashier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinic/backend/internal/domain/billing"
	"github.com/clinic/backend/internal/domain/shared"
	"github.com/clinic/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPayment(visitID, patientID uuid.UUID, amount int64) *billing.Payment {
	return &billing.Payment{
		ID:        uuid.New(),
		VisitID:   visitID,
		PatientID: patientID,
		Amount:    valueobject.NewMoneyIDR(amount),
		Method:    billing.PaymentMethodCash,
		Status:    billing.PaymentStatusPending,
		CreatedAt: time.Now(),
	}
}

func TestPaymentService_Commit(t *testing.T) {
	patientID := uuid.New()
	visitA := uuid.New()
	visitB := uuid.New()

	t.Run("should commit all entries in order", func(t *testing.T) {
		ledger := new(MockLedger)
		journal := new(MockJournal)
		service := NewPaymentService(ledger, journal, zap.NewNop())

		entries := []billing.AllocationEntry{
			{VisitID: visitA, Amount: valueobject.NewMoneyIDR(50000)},
			{VisitID: visitB, Amount: valueobject.NewMoneyIDR(30000)},
		}

		var createdOrder []uuid.UUID
		ledger.On("CreatePayment", mock.Anything, mock.MatchedBy(func(in billing.CreatePaymentInput) bool {
			return in.VisitID == visitA
		})).Run(func(args mock.Arguments) {
			createdOrder = append(createdOrder, visitA)
		}).Return(newPayment(visitA, patientID, 50000), nil).Once()
		ledger.On("CreatePayment", mock.Anything, mock.MatchedBy(func(in billing.CreatePaymentInput) bool {
			return in.VisitID == visitB
		})).Run(func(args mock.Arguments) {
			createdOrder = append(createdOrder, visitB)
		}).Return(newPayment(visitB, patientID, 30000), nil).Once()

		journal.On("Begin", mock.Anything, mock.Anything).Return(nil)
		journal.On("RecordEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, nil).Return(nil)
		journal.On("Finish", mock.Anything, mock.Anything, CommitOutcomeCommitted).Return(nil)

		result, err := service.Commit(context.Background(), CommitRequest{
			PatientID: patientID,
			Entries:   entries,
			Method:    billing.PaymentMethodCash,
		})

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Len(t, result.Committed, 2)
		assert.Nil(t, result.Failed)
		assert.False(t, result.PartiallyCommitted())
		assert.Equal(t, []uuid.UUID{visitA, visitB}, createdOrder)
		ledger.AssertExpectations(t)
		journal.AssertExpectations(t)
	})

	t.Run("should stop on first failure and keep committed prefix", func(t *testing.T) {
		ledger := new(MockLedger)
		journal := new(MockJournal)
		service := NewPaymentService(ledger, journal, zap.NewNop())

		entries := []billing.AllocationEntry{
			{VisitID: visitA, Amount: valueobject.NewMoneyIDR(50000)},
			{VisitID: visitB, Amount: valueobject.NewMoneyIDR(30000)},
		}
		remoteErr := errors.New("ledger unavailable")

		ledger.On("CreatePayment", mock.Anything, mock.MatchedBy(func(in billing.CreatePaymentInput) bool {
			return in.VisitID == visitA
		})).Return(newPayment(visitA, patientID, 50000), nil).Once()
		ledger.On("CreatePayment", mock.Anything, mock.MatchedBy(func(in billing.CreatePaymentInput) bool {
			return in.VisitID == visitB
		})).Return(nil, remoteErr).Once()

		journal.On("Begin", mock.Anything, mock.Anything).Return(nil)
		journal.On("RecordEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		journal.On("Finish", mock.Anything, mock.Anything, CommitOutcomePartial).Return(nil)

		result, err := service.Commit(context.Background(), CommitRequest{
			PatientID: patientID,
			Entries:   entries,
			Method:    billing.PaymentMethodCash,
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, remoteErr)
		require.NotNil(t, result)
		assert.Len(t, result.Committed, 1)
		assert.Equal(t, visitA, result.Committed[0].VisitID)
		require.NotNil(t, result.Failed)
		assert.Equal(t, visitB, result.Failed.VisitID)
		assert.Equal(t, 1, result.FailedIndex)
		assert.True(t, result.PartiallyCommitted())
		ledger.AssertExpectations(t)
		journal.AssertExpectations(t)
	})

	t.Run("should report failed outcome when the first entry fails", func(t *testing.T) {
		ledger := new(MockLedger)
		journal := new(MockJournal)
		service := NewPaymentService(ledger, journal, zap.NewNop())

		ledger.On("CreatePayment", mock.Anything, mock.Anything).
			Return(nil, errors.New("ledger unavailable")).Once()
		journal.On("Begin", mock.Anything, mock.Anything).Return(nil)
		journal.On("RecordEntry", mock.Anything, mock.Anything, 0, mock.Anything, mock.Anything).Return(nil)
		journal.On("Finish", mock.Anything, mock.Anything, CommitOutcomeFailed).Return(nil)

		result, err := service.Commit(context.Background(), CommitRequest{
			PatientID: patientID,
			Entries:   []billing.AllocationEntry{{VisitID: visitA, Amount: valueobject.NewMoneyIDR(50000)}},
			Method:    billing.PaymentMethodCash,
		})

		require.Error(t, err)
		require.NotNil(t, result)
		assert.Empty(t, result.Committed)
		assert.False(t, result.PartiallyCommitted())
		journal.AssertExpectations(t)
	})

	t.Run("should reject invalid requests without calling the ledger", func(t *testing.T) {
		tests := []struct {
			name string
			req  CommitRequest
			code string
		}{
			{
				name: "empty entries",
				req:  CommitRequest{PatientID: patientID, Method: billing.PaymentMethodCash},
				code: "INVALID_INPUT",
			},
			{
				name: "missing method",
				req: CommitRequest{
					PatientID: patientID,
					Entries:   []billing.AllocationEntry{{VisitID: visitA, Amount: valueobject.NewMoneyIDR(1000)}},
				},
				code: "INVALID_METHOD",
			},
			{
				name: "non-positive entry amount",
				req: CommitRequest{
					PatientID: patientID,
					Entries:   []billing.AllocationEntry{{VisitID: visitA, Amount: valueobject.ZeroIDR()}},
					Method:    billing.PaymentMethodCash,
				},
				code: "INVALID_AMOUNT",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ledger := new(MockLedger)
				journal := new(MockJournal)
				service := NewPaymentService(ledger, journal, zap.NewNop())

				result, err := service.Commit(context.Background(), tt.req)

				require.Error(t, err)
				assert.Nil(t, result)
				var domainErr *shared.DomainError
				require.ErrorAs(t, err, &domainErr)
				assert.Equal(t, tt.code, domainErr.Code)
				ledger.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
				journal.AssertNotCalled(t, "Begin", mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("should commit even when the journal is unavailable", func(t *testing.T) {
		ledger := new(MockLedger)
		journal := new(MockJournal)
		service := NewPaymentService(ledger, journal, zap.NewNop())

		ledger.On("CreatePayment", mock.Anything, mock.Anything).
			Return(newPayment(visitA, patientID, 50000), nil).Once()
		journal.On("Begin", mock.Anything, mock.Anything).Return(errors.New("disk full"))
		journal.On("RecordEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))
		journal.On("Finish", mock.Anything, mock.Anything, CommitOutcomeCommitted).Return(errors.New("disk full"))

		result, err := service.Commit(context.Background(), CommitRequest{
			PatientID: patientID,
			Entries:   []billing.AllocationEntry{{VisitID: visitA, Amount: valueobject.NewMoneyIDR(50000)}},
			Method:    billing.PaymentMethodCash,
		})

		require.NoError(t, err)
		assert.Len(t, result.Committed, 1)
	})
}

func TestPaymentService_Confirm(t *testing.T) {
	paymentID := uuid.New()

	t.Run("should return the confirmed payment", func(t *testing.T) {
		ledger := new(MockLedger)
		service := NewPaymentService(ledger, nil, zap.NewNop())

		confirmed := newPayment(uuid.New(), uuid.New(), 50000)
		confirmed.Status = billing.PaymentStatusPaid
		ledger.On("ConfirmPayment", mock.Anything, paymentID).Return(confirmed, nil).Once()

		payment, err := service.Confirm(context.Background(), paymentID)

		require.NoError(t, err)
		assert.Equal(t, billing.PaymentStatusPaid, payment.Status)
		ledger.AssertExpectations(t)
	})

	t.Run("should propagate ledger state conflicts", func(t *testing.T) {
		ledger := new(MockLedger)
		service := NewPaymentService(ledger, nil, zap.NewNop())

		stateErr := shared.NewDomainError("INVALID_STATE", "Payment is already cancelled")
		ledger.On("ConfirmPayment", mock.Anything, paymentID).Return(nil, stateErr).Once()

		payment, err := service.Confirm(context.Background(), paymentID)

		require.Error(t, err)
		assert.Nil(t, payment)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})
}

func TestPaymentService_Cancel(t *testing.T) {
	paymentID := uuid.New()

	t.Run("should trim the reason before sending", func(t *testing.T) {
		ledger := new(MockLedger)
		service := NewPaymentService(ledger, nil, zap.NewNop())

		cancelled := newPayment(uuid.New(), uuid.New(), 50000)
		cancelled.Status = billing.PaymentStatusCancelled
		ledger.On("CancelPayment", mock.Anything, paymentID, "wrong patient").Return(cancelled, nil).Once()

		payment, err := service.Cancel(context.Background(), paymentID, "  wrong patient  ")

		require.NoError(t, err)
		assert.Equal(t, billing.PaymentStatusCancelled, payment.Status)
		ledger.AssertExpectations(t)
	})
}

func TestPaymentService_Refund(t *testing.T) {
	paymentID := uuid.New()

	t.Run("should refund through the ledger", func(t *testing.T) {
		ledger := new(MockLedger)
		service := NewPaymentService(ledger, nil, zap.NewNop())

		amount := valueobject.NewMoneyIDR(20000)
		ledger.On("RefundPayment", mock.Anything, paymentID, amount, "duplicate charge").
			Return(&billing.RefundResult{RefundedAmount: amount}, nil).Once()

		result, err := service.Refund(context.Background(), paymentID, RefundRequest{
			Amount: amount,
			Reason: "duplicate charge",
		})

		require.NoError(t, err)
		assert.True(t, amount.Equals(result.RefundedAmount))
		ledger.AssertExpectations(t)
	})

	t.Run("should reject guard failures before any remote call", func(t *testing.T) {
		snapshot := newPayment(uuid.New(), uuid.New(), 50000)
		snapshot.Status = billing.PaymentStatusPaid

		tests := []struct {
			name string
			req  RefundRequest
			code string
		}{
			{
				name: "zero amount",
				req:  RefundRequest{Amount: valueobject.ZeroIDR(), Reason: "duplicate charge"},
				code: "INVALID_AMOUNT",
			},
			{
				name: "reason too short",
				req:  RefundRequest{Amount: valueobject.NewMoneyIDR(1000), Reason: " ab "},
				code: "INVALID_REASON",
			},
			{
				name: "exceeds refundable balance",
				req: RefundRequest{
					Amount:   valueobject.NewMoneyIDR(60000),
					Reason:   "duplicate charge",
					Snapshot: snapshot,
				},
				code: "EXCEEDS_REFUNDABLE",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ledger := new(MockLedger)
				service := NewPaymentService(ledger, nil, zap.NewNop())

				result, err := service.Refund(context.Background(), paymentID, tt.req)

				require.Error(t, err)
				assert.Nil(t, result)
				var domainErr *shared.DomainError
				require.ErrorAs(t, err, &domainErr)
				assert.Equal(t, tt.code, domainErr.Code)
				ledger.AssertNotCalled(t, "RefundPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})
}

func TestPaymentService_History(t *testing.T) {
	t.Run("should group the returned page by patient and minute", func(t *testing.T) {
		ledger := new(MockLedger)
		service := NewPaymentService(ledger, nil, zap.NewNop())

		patientID := uuid.New()
		createdAt := time.Date(2026, 3, 14, 10, 30, 12, 0, time.Local)
		first := *newPayment(uuid.New(), patientID, 50000)
		first.CreatedAt = createdAt
		second := *newPayment(uuid.New(), patientID, 30000)
		second.CreatedAt = createdAt.Add(20 * time.Second)

		page := &billing.Page[billing.Payment]{
			Items:    []billing.Payment{first, second},
			Total:    2,
			Page:     1,
			PageSize: 20,
		}
		ledger.On("GetPayments", mock.Anything, mock.Anything).Return(page, nil).Once()

		gotPage, groups, err := service.History(context.Background(), billing.PaymentQuery{Page: 1, PageSize: 20})

		require.NoError(t, err)
		assert.Equal(t, page, gotPage)
		require.Len(t, groups, 1)
		assert.Len(t, groups[0].GroupedPaymentIDs, 2)
		assert.Equal(t, int64(80000), groups[0].TotalAmount.Int64())
	})

	t.Run("should propagate listing errors", func(t *testing.T) {
		ledger := new(MockLedger)
		service := NewPaymentService(ledger, nil, zap.NewNop())

		ledger.On("GetPayments", mock.Anything, mock.Anything).
			Return(nil, errors.New("ledger unavailable")).Once()

		gotPage, groups, err := service.History(context.Background(), billing.PaymentQuery{})

		require.Error(t, err)
		assert.Nil(t, gotPage)
		assert.Nil(t, groups)
	})
}
