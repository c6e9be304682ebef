package persistence

import (
	"time"

	"github.com/google/uuid"
)

// CommitAttemptModel is the journal header row for one multi-visit commit.
// Amounts are stored in minor units; the currency rides alongside.
type CommitAttemptModel struct {
	ID         uuid.UUID `gorm:"type:text;primaryKey"`
	PatientID  uuid.UUID `gorm:"type:text;index;not null"`
	Method     string    `gorm:"not null"`
	Note       string
	Tendered   int64  `gorm:"not null"`
	Currency   string `gorm:"not null"`
	Outcome    string `gorm:"index"` // empty while in flight
	StartedAt  time.Time
	FinishedAt *time.Time
}

// TableName overrides the table name
func (CommitAttemptModel) TableName() string {
	return "commit_attempts"
}

// CommitEntryModel is one allocation entry of a journaled attempt
type CommitEntryModel struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	AttemptID  uuid.UUID `gorm:"type:text;index:idx_commit_entries_attempt_idx,unique;not null"`
	Idx        int       `gorm:"index:idx_commit_entries_attempt_idx,unique;not null"`
	VisitID    uuid.UUID `gorm:"type:text;not null"`
	Amount     int64     `gorm:"not null"`
	Currency   string    `gorm:"not null"`
	PaymentID  *uuid.UUID `gorm:"type:text"`
	EntryError string
	RecordedAt *time.Time
}

// TableName overrides the table name
func (CommitEntryModel) TableName() string {
	return "commit_entries"
}
