package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base contains the identity and lifecycle columns shared by every config entity.
// Records are never physically removed; IsDeleted hides them from default reads.
type Base struct {
	ID            string     `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedByUser string     `gorm:"size:64" json:"createdByUser"`
	ChangedByUser string     `gorm:"size:64" json:"changedByUser"`
	ChangedDate   *time.Time `json:"changedDate"`
	IsDeleted     bool       `gorm:"not null;default:false" json:"isDeleted"`
	DeletedBy     string     `gorm:"size:64" json:"deletedBy"`
	DeleteReason  string     `gorm:"size:500" json:"deleteReason"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = NewID()
	}
	return nil
}

// RecordID returns the opaque storage id.
func (b *Base) RecordID() string { return b.ID }

// Record is implemented by every entity embedding Base.
type Record interface {
	RecordID() string
}

// NewID returns a time-ordered UUIDv7 string, falling back to v4 if the
// clock source fails.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// IsID reports whether s is a well-formed record id.
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
