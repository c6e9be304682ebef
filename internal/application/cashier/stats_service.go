package cashier

import (
	"context"
	"fmt"
	"time"

	"github.com/clinic/backend/internal/domain/billing"
	"github.com/clinic/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatsCache is a read-through cache for pre-aggregated backend stats.
// Cache failures degrade to a backend call, never to a request failure.
// Visit debts are never cached here or anywhere else client-side.
type StatsCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// StatsCacheTTL bounds how stale a cashier dashboard figure can be
const StatsCacheTTL = 60 * time.Second

// StatsService exposes the backend's pre-aggregated payment totals.
// All aggregation happens server-side; this layer only relays and briefly
// caches the figures.
type StatsService struct {
	ledger billing.Ledger
	cache  StatsCache // nil disables caching
	logger *zap.Logger
}

// NewStatsService creates a new StatsService
func NewStatsService(ledger billing.Ledger, cache StatsCache, logger *zap.Logger) *StatsService {
	return &StatsService{
		ledger: ledger,
		cache:  cache,
		logger: logger,
	}
}

// Stats returns payment totals for a date range
func (s *StatsService) Stats(ctx context.Context, dateFrom, dateTo *time.Time) (*billing.Stats, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cashier", "stats")
	defer span.End()

	key := statsKey("stats", dateFrom, dateTo)
	if s.cache != nil {
		var cached billing.Stats
		if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
			s.logger.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	stats, err := s.ledger.GetStats(ctx, dateFrom, dateTo)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("get stats: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, stats, StatsCacheTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return stats, nil
}

// HourlyStats returns per-hour payment volume for a target date
func (s *StatsService) HourlyStats(ctx context.Context, targetDate time.Time) ([]billing.HourlyStat, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cashier", "hourly_stats")
	defer span.End()

	key := "cashier:stats:hourly:" + targetDate.Format("2006-01-02")
	if s.cache != nil {
		var cached []billing.HourlyStat
		if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
			s.logger.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	stats, err := s.ledger.GetHourlyStats(ctx, targetDate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("get hourly stats: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, stats, StatsCacheTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return stats, nil
}

// Receipt fetches the printable artifact the ledger rendered for a payment
func (s *StatsService) Receipt(ctx context.Context, paymentID uuid.UUID) (*billing.Receipt, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cashier", "receipt")
	defer span.End()
	telemetry.SetAttributes(span, "payment_id", paymentID.String())

	receipt, err := s.ledger.GetReceipt(ctx, paymentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("get receipt %s: %w", paymentID, err)
	}
	return receipt, nil
}

func statsKey(prefix string, dateFrom, dateTo *time.Time) string {
	const layout = "2006-01-02"
	from, to := "", ""
	if dateFrom != nil {
		from = dateFrom.Format(layout)
	}
	if dateTo != nil {
		to = dateTo.Format(layout)
	}
	return fmt.Sprintf("cashier:%s:%s:%s", prefix, from, to)
}
