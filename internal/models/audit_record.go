package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditAction identifies the mutation an audit record describes.
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionEdit   AuditAction = "EDIT"
	AuditActionDelete AuditAction = "DELETE"
)

// AuditRecord is an immutable snapshot of a config entity taken right after a
// mutation. Each entity has its own audit table, see AuditTable.
type AuditRecord struct {
	ID           string         `gorm:"type:uuid;primaryKey" json:"id"`
	ActionItemID string         `gorm:"size:36;not null" json:"actionItemId"`
	Action       AuditAction    `gorm:"size:10;not null" json:"action"`
	ActionDate   time.Time      `gorm:"not null" json:"actionDate"`
	ActionBy     string         `gorm:"size:64" json:"actionBy"`
	Snapshot     datatypes.JSON `json:"snapshot"`
}

// AuditTable returns the audit table companion of an entity table.
func AuditTable(table string) string {
	return table + "_audit"
}
