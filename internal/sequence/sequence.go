// Package sequence hands out dense, per-entity numeric ids. The counter row
// is bumped inside the caller's transaction, so an aborted create leaves it
// untouched.
package sequence

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "refdata/internal/errors"
	"refdata/internal/models"
)

// Sequencer assigns numeric ids.
type Sequencer struct{}

// New creates a Sequencer.
func New() *Sequencer {
	return &Sequencer{}
}

// Next increments and returns the counter of entityType using tx.
func (s *Sequencer) Next(tx *gorm.DB, entityType string) (int64, error) {
	row := models.Sequence{EntityType: entityType, Counter: 1}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "entity_type"}},
		DoUpdates: clause.Assignments(map[string]any{
			"counter": gorm.Expr(models.TableSequences + ".counter + 1"),
		}),
	}).Create(&row).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrSequenceFailed, fmt.Errorf("bump %s: %w", entityType, err))
	}

	var current models.Sequence
	if err := tx.Where("entity_type = ?", entityType).Take(&current).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrSequenceFailed, fmt.Errorf("read %s: %w", entityType, err))
	}
	return current.Counter, nil
}

// Current returns the last id handed out for entityType, or 0.
func (s *Sequencer) Current(db *gorm.DB, entityType string) (int64, error) {
	var current models.Sequence
	err := db.Where("entity_type = ?", entityType).Limit(1).Find(&current).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrSequenceFailed, err)
	}
	return current.Counter, nil
}
