package cashier

import (
	"context"
	"time"

	"github.com/clinic/backend/internal/domain/billing"
	"github.com/clinic/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockLedger is a testify mock of the remote payment ledger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) GetPendingPayments(ctx context.Context, q billing.PendingQuery) (*billing.Page[billing.PendingDebtAggregate], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Page[billing.PendingDebtAggregate]), args.Error(1)
}

func (m *MockLedger) GetPayments(ctx context.Context, q billing.PaymentQuery) (*billing.Page[billing.Payment], error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Page[billing.Payment]), args.Error(1)
}

func (m *MockLedger) CreatePayment(ctx context.Context, in billing.CreatePaymentInput) (*billing.Payment, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockLedger) ConfirmPayment(ctx context.Context, paymentID uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockLedger) CancelPayment(ctx context.Context, paymentID uuid.UUID, reason string) (*billing.Payment, error) {
	args := m.Called(ctx, paymentID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockLedger) RefundPayment(ctx context.Context, paymentID uuid.UUID, amount valueobject.Money, reason string) (*billing.RefundResult, error) {
	args := m.Called(ctx, paymentID, amount, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.RefundResult), args.Error(1)
}

func (m *MockLedger) GetReceipt(ctx context.Context, paymentID uuid.UUID) (*billing.Receipt, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Receipt), args.Error(1)
}

func (m *MockLedger) GetStats(ctx context.Context, dateFrom, dateTo *time.Time) (*billing.Stats, error) {
	args := m.Called(ctx, dateFrom, dateTo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Stats), args.Error(1)
}

func (m *MockLedger) GetHourlyStats(ctx context.Context, targetDate time.Time) ([]billing.HourlyStat, error) {
	args := m.Called(ctx, targetDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.HourlyStat), args.Error(1)
}

// MockJournal is a testify mock of the local commit journal
type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) Begin(ctx context.Context, attempt CommitAttempt) error {
	return m.Called(ctx, attempt).Error(0)
}

func (m *MockJournal) RecordEntry(ctx context.Context, attemptID uuid.UUID, index int, paymentID *uuid.UUID, entryErr error) error {
	return m.Called(ctx, attemptID, index, paymentID, entryErr).Error(0)
}

func (m *MockJournal) Finish(ctx context.Context, attemptID uuid.UUID, outcome CommitOutcome) error {
	return m.Called(ctx, attemptID, outcome).Error(0)
}
