package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clinic/backend/internal/application/cashier"
	"github.com/clinic/backend/internal/domain/shared"
)

// GormCommitJournal implements cashier.CommitJournal on the local sqlite
// database. Every write is advisory; the caller logs and continues when a
// journal write fails.
type GormCommitJournal struct {
	db *gorm.DB
}

var _ cashier.CommitJournal = (*GormCommitJournal)(nil)

// NewGormCommitJournal creates a new GormCommitJournal
func NewGormCommitJournal(db *gorm.DB) *GormCommitJournal {
	return &GormCommitJournal{db: db}
}

// Begin records the attempt header with all entries pending
func (j *GormCommitJournal) Begin(ctx context.Context, attempt cashier.CommitAttempt) error {
	return j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header := CommitAttemptModel{
			ID:        attempt.ID,
			PatientID: attempt.PatientID,
			Method:    attempt.Method.String(),
			Note:      attempt.Note,
			Tendered:  attempt.Tendered.Int64(),
			Currency:  string(attempt.Tendered.Currency()),
			StartedAt: attempt.StartedAt,
		}
		if err := tx.Create(&header).Error; err != nil {
			return err
		}

		entries := make([]CommitEntryModel, len(attempt.Entries))
		for i, entry := range attempt.Entries {
			entries[i] = CommitEntryModel{
				AttemptID: attempt.ID,
				Idx:       i,
				VisitID:   entry.VisitID,
				Amount:    entry.Amount.Int64(),
				Currency:  string(entry.Amount.Currency()),
			}
		}
		return tx.Create(&entries).Error
	})
}

// RecordEntry records the outcome of one entry
func (j *GormCommitJournal) RecordEntry(ctx context.Context, attemptID uuid.UUID, index int, paymentID *uuid.UUID, entryErr error) error {
	now := time.Now()
	updates := map[string]any{
		"recorded_at": &now,
	}
	if paymentID != nil {
		updates["payment_id"] = paymentID
	}
	if entryErr != nil {
		updates["entry_error"] = entryErr.Error()
	}

	result := j.db.WithContext(ctx).
		Model(&CommitEntryModel{}).
		Where("attempt_id = ? AND idx = ?", attemptID, index).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Finish seals the attempt with its final outcome
func (j *GormCommitJournal) Finish(ctx context.Context, attemptID uuid.UUID, outcome cashier.CommitOutcome) error {
	now := time.Now()
	result := j.db.WithContext(ctx).
		Model(&CommitAttemptModel{}).
		Where("id = ?", attemptID).
		Updates(map[string]any{
			"outcome":     string(outcome),
			"finished_at": &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindAttempt loads one attempt header with its entries
func (j *GormCommitJournal) FindAttempt(ctx context.Context, attemptID uuid.UUID) (*CommitAttemptModel, []CommitEntryModel, error) {
	var header CommitAttemptModel
	if err := j.db.WithContext(ctx).First(&header, "id = ?", attemptID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, shared.ErrNotFound
		}
		return nil, nil, err
	}

	var entries []CommitEntryModel
	if err := j.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("idx").
		Find(&entries).Error; err != nil {
		return nil, nil, err
	}
	return &header, entries, nil
}

// ListUnfinished returns attempts that never reached a final outcome, oldest
// first. These are the tenders to reconcile against the ledger after a crash.
func (j *GormCommitJournal) ListUnfinished(ctx context.Context) ([]CommitAttemptModel, error) {
	var attempts []CommitAttemptModel
	if err := j.db.WithContext(ctx).
		Where("outcome = ?", "").
		Order("started_at").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}
