package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "refdata/internal/errors"
	"refdata/internal/logger"
	"refdata/internal/models"
	"refdata/internal/schema"
	"refdata/internal/sequence"
)

// bondService builds bond securities section by section. Reads, deletes and
// the audit trail come from the embedded generic resource.
type bondService struct {
	*Resource[models.BondSecurity]
}

// NewBondService creates a new BondServicer.
func NewBondService(db *gorm.DB, seq *sequence.Sequencer, audit AuditServicer) BondServicer {
	return &bondService{Resource: NewResource[models.BondSecurity](db, BondSecurityEntity, seq, audit)}
}

// Create runs every section in order on one shared transaction. Only the
// final section commits; a failure at any section rolls back all of them.
func (s *bondService) Create(ctx context.Context, input map[string]any, actor string) (*models.BondSecurity, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, abort(s.entity, OpCreate, "", nil, tx.Error)
	}

	var current *models.BondSecurity
	var key map[string]any
	state := StageGeneral
	for _, sec := range bondSections {
		values, err := s.prepare(ctx, tx, sec, current, input, schema.ModeCreate)
		if err != nil {
			return nil, s.rollback(tx, state, current, key, err)
		}
		if sec.stage == StageGeneral {
			key = naturalKey(s.entity, values, nil)
		}
		if sec.stage == StageReferenceRate {
			if err := checkFloating(values, current); err != nil {
				return nil, s.rollback(tx, state, current, key, err)
			}
		}
		next, err := s.mutate(tx, current, values, actor, false)
		if err != nil {
			return nil, s.rollback(tx, state, current, key, err)
		}
		current = next
		state = sec.stage + 1
	}

	if err := tx.Commit().Error; err != nil {
		return nil, s.rollback(tx, state, current, key, err)
	}
	committed(s.entity, models.AuditActionCreate)
	logger.Get().Infow("bond security created", "bond_id", current.ID, "stage", StageCommitted.String())

	return s.Get(ctx, current.ID)
}

// CreateRow creates one bond on behalf of the bulk importer.
func (s *bondService) CreateRow(ctx context.Context, input map[string]any, actor string) (any, error) {
	return s.Create(ctx, input, actor)
}

// UpdateSection validates and commits a single section of an existing bond.
func (s *bondService) UpdateSection(ctx context.Context, slug, id string, input map[string]any, actor string) (*models.BondSecurity, error) {
	sec, ok := sectionBySlug(slug)
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "unknown bond section '"+slug+"'")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	values, err := s.prepare(ctx, s.db.WithContext(ctx), sec, current, input, schema.ModeUpdate)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "no updatable fields supplied")
	}
	if err := checkFloating(values, current); err != nil {
		return nil, err
	}
	return s.commitEdit(ctx, current, values, actor)
}

// Update applies every section the input touches as one audited edit.
func (s *bondService) Update(ctx context.Context, id string, input map[string]any, actor string) (*models.BondSecurity, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	merged := schema.Values{}
	for _, sec := range bondSections {
		if !sec.schema.Covers(input) {
			continue
		}
		values, err := s.prepare(ctx, db, sec, current, input, schema.ModeUpdate)
		if err != nil {
			return nil, err
		}
		for k, v := range values {
			merged[k] = v
		}
	}
	if len(merged) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "no updatable fields supplied")
	}
	if err := checkFloating(merged, current); err != nil {
		return nil, err
	}
	return s.commitEdit(ctx, current, merged, actor)
}

// RemoveAttachment drops one attachment, matched by exact value.
func (s *bondService) RemoveAttachment(ctx context.Context, id, attachment, actor string) (*models.BondSecurity, error) {
	attachment = strings.TrimSpace(attachment)
	if attachment == "" {
		return nil, apperrors.FieldError(apperrors.ErrValidation, map[string]string{"attachment": "is required"})
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.HasAttachment(attachment) {
		return nil, apperrors.WithMessage(apperrors.ErrNotFound, "attachment '"+attachment+"' not found")
	}

	remaining := make([]any, 0, len(current.Attachments))
	for _, a := range current.Attachments {
		if a != attachment {
			remaining = append(remaining, a)
		}
	}
	return s.commitEdit(ctx, current, schema.Values{"attachments": remaining}, actor)
}

// BulkDelete soft-deletes every id in one transaction. One unknown or
// already deleted id aborts the whole batch.
func (s *bondService) BulkDelete(ctx context.Context, ids []string, reason, actor string) (int, error) {
	seen := map[string]bool{}
	var targets []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		targets = append(targets, id)
	}
	if len(targets) == 0 {
		return 0, apperrors.FieldError(apperrors.ErrValidation, map[string]string{"ids": "is required"})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range targets {
			if !models.IsID(id) {
				return apperrors.WithMessage(apperrors.ErrNotFound, s.entity.Name+" '"+id+"' not found")
			}
			if _, err := softDelete[models.BondSecurity](tx, s.mutator, id, strings.TrimSpace(reason), actor); err != nil {
				if apperrors.HasCode(err, apperrors.ErrNotFound.Code) {
					return apperrors.WithMessage(apperrors.ErrNotFound, s.entity.Name+" '"+id+"' not found")
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, abort(s.entity, OpDelete, strings.Join(targets, ","), nil, err)
	}
	for range targets {
		committed(s.entity, models.AuditActionDelete)
	}
	return len(targets), nil
}

// prepare validates one section against the bond's persisted state. db is
// the open transaction during a create and the plain handle otherwise.
func (s *bondService) prepare(ctx context.Context, db *gorm.DB, sec section, current *models.BondSecurity, input map[string]any, mode schema.Mode) (schema.Values, error) {
	values, err := sec.schema.Validate(ctx, input, mode, liveReferences{db: db})
	if err != nil {
		return nil, err
	}

	switch sec.stage {
	case StageGeneral:
		if err := checkTerm(values, current); err != nil {
			return nil, err
		}
		var persisted map[string]any
		excludeID := ""
		if current != nil {
			persisted, excludeID = asFields(current), current.ID
		}
		if err := checkUnique(ctx, db, s.entity, values, persisted, excludeID); err != nil {
			return nil, err
		}

	case StageComments:
		added, ok := values["attachments"].([]any)
		if ok && current != nil {
			merged := make([]any, 0, len(current.Attachments)+len(added))
			seen := make(map[string]bool, cap(merged))
			for _, a := range current.Attachments {
				seen[a] = true
				merged = append(merged, a)
			}
			for _, a := range added {
				path := a.(string)
				if !seen[path] {
					seen[path] = true
					merged = append(merged, path)
				}
			}
			values["attachments"] = merged
		}
	}
	return values, nil
}

// mutate inserts the bond when current is nil and updates it otherwise.
func (s *bondService) mutate(tx *gorm.DB, current *models.BondSecurity, values schema.Values, actor string, stamp bool) (*models.BondSecurity, error) {
	if current == nil {
		return insert[models.BondSecurity](tx, s.mutator, values, actor)
	}
	return update[models.BondSecurity](tx, s.mutator, current.ID, s.entity.Schema.Columns(values), actor, stamp)
}

func (s *bondService) commitEdit(ctx context.Context, current *models.BondSecurity, values schema.Values, actor string) (*models.BondSecurity, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.mutate(tx, current, values, actor, true)
		return err
	})
	if err != nil {
		return nil, abort(s.entity, OpUpdate, current.ID, naturalKey(s.entity, values, asFields(current)), err)
	}
	committed(s.entity, models.AuditActionEdit)
	return s.Get(ctx, current.ID)
}

func (s *bondService) rollback(tx *gorm.DB, state Stage, current *models.BondSecurity, key map[string]any, cause error) error {
	if err := tx.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Get().Warnw("rollback failed", "entity", s.entity.Name, "error", err)
	}
	id := ""
	if current != nil {
		id = current.ID
	}
	logger.Get().Warnw("bond build rolled back",
		"failed_stage", state.String(),
		"stage", StageAborted.String(),
		"bond_id", id,
	)
	return abort(s.entity, OpCreate, id, key, cause)
}

// checkTerm requires maturityDate to fall on or after issueDate.
func checkTerm(values schema.Values, current *models.BondSecurity) error {
	issue := effectiveDate(values, "issueDate", current, func(b *models.BondSecurity) *time.Time { return b.IssueDate })
	maturity := effectiveDate(values, "maturityDate", current, func(b *models.BondSecurity) *time.Time { return b.MaturityDate })
	if issue != nil && maturity != nil && maturity.Before(*issue) {
		return apperrors.FieldError(apperrors.ErrValidation, map[string]string{
			"maturityDate": "must not be before issueDate",
		})
	}
	return nil
}

// checkFloating requires a reference rate on floating coupon bonds. Fields
// absent from values keep their persisted state.
func checkFloating(values schema.Values, current *models.BondSecurity) error {
	couponType, rate := "", ""
	if current != nil {
		couponType, rate = current.CouponType, current.ReferenceRateRef
	}
	if v, ok := values["couponType"].(string); ok {
		couponType = v
	}
	if v, ok := values["referenceRate"].(string); ok {
		rate = v
	}
	if couponType == "Floating" && rate == "" {
		return apperrors.FieldError(apperrors.ErrValidation, map[string]string{
			"referenceRate": "is required for floating coupons",
		})
	}
	return nil
}

func effectiveDate(values schema.Values, name string, current *models.BondSecurity, persisted func(*models.BondSecurity) *time.Time) *time.Time {
	if v, ok := values[name]; ok {
		if t, ok := v.(time.Time); ok {
			return &t
		}
		return nil
	}
	if current != nil {
		return persisted(current)
	}
	return nil
}
