package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "refdata/internal/errors"
	"refdata/internal/models"
	"refdata/internal/pagination"
)

// auditService writes and reads the per-entity audit tables.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Record snapshots record into the audit table of table using tx. It must run
// inside the transaction of the mutation it describes: an error here aborts it.
func (s *auditService) Record(tx *gorm.DB, table string, action models.AuditAction, id, actor string, record any) error {
	snapshot, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit snapshot: %w", err)
	}

	entry := &models.AuditRecord{
		ID:           models.NewID(),
		ActionItemID: id,
		Action:       action,
		ActionDate:   time.Now().UTC(),
		ActionBy:     actor,
		Snapshot:     datatypes.JSON(snapshot),
	}
	if err := tx.Table(models.AuditTable(table)).Create(entry).Error; err != nil {
		return fmt.Errorf("write %s audit: %w", table, err)
	}
	return nil
}

// Trail lists the audit records of one primary record, newest first.
func (s *auditService) Trail(ctx context.Context, table, id string, page pagination.PageRequest) (*pagination.PageResponse[models.AuditRecord], error) {
	page.Defaults(20)

	base := s.db.WithContext(ctx).Table(models.AuditTable(table)).Where("action_item_id = ?", id).
		Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var records []models.AuditRecord
	if err := base.Order("action_date DESC").Order("id DESC").
		Scopes(pagination.Paginate(page)).Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(records, page.Page, page.PerPage, total)
	return &result, nil
}
