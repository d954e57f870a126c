package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "refdata/internal/errors"
	"refdata/internal/models"
)

// processService reads bulk import jobs.
type processService struct {
	db *gorm.DB
}

// NewProcessService creates a new ProcessServicer.
func NewProcessService(db *gorm.DB) ProcessServicer {
	return &processService{db: db}
}

// Get returns one process request with its report.
func (s *processService) Get(ctx context.Context, id string) (*models.ProcessRequest, error) {
	if !models.IsID(id) {
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "process request not found")
	}
	var proc models.ProcessRequest
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&proc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrNotFound, "process request not found")
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &proc, nil
}
