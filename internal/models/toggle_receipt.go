package models

import "time"

// ToggleReceipt remembers the outcome of a toggle submitted with an
// idempotency key so a retried request returns the stored result instead of
// flipping the edge a second time.
type ToggleReceipt struct {
	ID         uint         `gorm:"primaryKey"`
	SubjectID  uint         `gorm:"not null;uniqueIndex:idx_receipt_subject_key,priority:1"`
	Key        string       `gorm:"column:idempotency_key;size:64;not null;uniqueIndex:idx_receipt_subject_key,priority:2"`
	Relation   RelationType `gorm:"size:16;not null"`
	TargetKind TargetKind   `gorm:"size:8;not null"`
	TargetID   uint         `gorm:"not null"`
	Active     bool         `gorm:"not null"`
	CreatedAt  time.Time    `gorm:"index"`
}
