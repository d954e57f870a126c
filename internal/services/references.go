package services

import (
	"context"

	"gorm.io/gorm"
)

// liveReferences resolves references against live rows using db, which may
// be an open transaction.
type liveReferences struct {
	db *gorm.DB
}

// Exists reports whether table holds a non-deleted row with the given id.
func (r liveReferences) Exists(ctx context.Context, table, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(table).
		Where("id = ? AND is_deleted = ?", id, false).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
