package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "refdata/internal/errors"
	"refdata/internal/logger"
	"refdata/internal/metrics"
	"refdata/internal/models"
	"refdata/internal/schema"
	"refdata/internal/sequence"
)

// Mutation operations, as reported in logs and metrics.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// mutator performs the primary write plus its audit insert on an open
// transaction. Callers own the transaction boundary.
type mutator struct {
	entity *Entity
	seq    *sequence.Sequencer
	audit  AuditServicer
}

// insert assigns the sequence id, inserts the record, re-reads it and writes
// the CREATE audit entry.
func insert[T any](tx *gorm.DB, m mutator, values schema.Values, actor string) (*T, error) {
	n, err := m.seq.Next(tx, m.entity.Table)
	if err != nil {
		return nil, err
	}

	row := make(map[string]any, len(values)+2)
	for k, v := range values {
		row[k] = v
	}
	row[m.entity.SequenceField] = n
	row["createdByUser"] = actor

	rec, err := decode[T](row)
	if err != nil {
		return nil, err
	}
	if err := tx.Create(rec).Error; err != nil {
		return nil, fmt.Errorf("insert %s: %w", m.entity.Name, err)
	}

	id := recordID(rec)
	fresh, err := reload[T](tx, id)
	if err != nil {
		return nil, err
	}
	if err := m.audit.Record(tx, m.entity.Table, models.AuditActionCreate, id, actor, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// update merges cols into the live record id, re-reads it and writes an EDIT
// audit entry. stamp sets changedByUser and changedDate.
func update[T any](tx *gorm.DB, m mutator, id string, cols map[string]any, actor string, stamp bool) (*T, error) {
	now := time.Now().UTC()
	changes := make(map[string]any, len(cols)+3)
	for k, v := range cols {
		changes[k] = v
	}
	changes["updated_at"] = now
	if stamp {
		changes["changed_by_user"] = actor
		changes["changed_date"] = now
	}

	res := tx.Model(new(T)).Where("id = ? AND is_deleted = ?", id, false).Updates(changes)
	if res.Error != nil {
		return nil, fmt.Errorf("update %s: %w", m.entity.Name, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFound(m.entity)
	}

	fresh, err := reload[T](tx, id)
	if err != nil {
		return nil, err
	}
	if err := m.audit.Record(tx, m.entity.Table, models.AuditActionEdit, id, actor, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// softDelete marks the live record id deleted and writes a DELETE audit entry.
func softDelete[T any](tx *gorm.DB, m mutator, id, reason, actor string) (*T, error) {
	now := time.Now().UTC()
	res := tx.Model(new(T)).Where("id = ? AND is_deleted = ?", id, false).Updates(map[string]any{
		"is_deleted":      true,
		"deleted_by":      actor,
		"delete_reason":   reason,
		"changed_by_user": actor,
		"changed_date":    now,
		"updated_at":      now,
	})
	if res.Error != nil {
		return nil, fmt.Errorf("delete %s: %w", m.entity.Name, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFound(m.entity)
	}

	fresh, err := reload[T](tx, id)
	if err != nil {
		return nil, err
	}
	if err := m.audit.Record(tx, m.entity.Table, models.AuditActionDelete, id, actor, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// reload reads a record by id regardless of its deleted flag.
func reload[T any](tx *gorm.DB, id string) (*T, error) {
	rec := new(T)
	if err := tx.Where("id = ?", id).Take(rec).Error; err != nil {
		return nil, fmt.Errorf("re-read %s: %w", id, err)
	}
	return rec, nil
}

// decode builds a record from field-name keyed values via its JSON tags.
func decode[T any](row map[string]any) (*T, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	rec := new(T)
	if err := json.Unmarshal(raw, rec); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	return rec, nil
}

// asFields renders a record as a field-name keyed map.
func asFields(rec any) map[string]any {
	raw, err := json.Marshal(rec)
	if err != nil {
		return map[string]any{}
	}
	fields := map[string]any{}
	_ = json.Unmarshal(raw, &fields)
	return fields
}

func recordID(rec any) string {
	if r, ok := rec.(models.Record); ok {
		return r.RecordID()
	}
	return ""
}

func notFound(e *Entity) *apperrors.AppError {
	return apperrors.WithMessage(apperrors.ErrNotFound, e.Name+" not found")
}

// naturalKey returns the natural key values records would carry after the
// write. Key fields absent from values fall back to current, the persisted
// state of the record being updated.
func naturalKey(e *Entity, values schema.Values, current map[string]any) map[string]any {
	if len(e.NaturalKey) == 0 {
		return nil
	}
	key := make(map[string]any, len(e.NaturalKey))
	for _, name := range e.NaturalKey {
		v, ok := values[name]
		if !ok {
			v = current[name]
		}
		if v == nil {
			v = ""
		}
		key[name] = v
	}
	return key
}

// checkUnique rejects values whose resulting natural key collides with
// another live record.
func checkUnique(ctx context.Context, db *gorm.DB, e *Entity, values schema.Values, current map[string]any, excludeID string) error {
	key := naturalKey(e, values, current)
	if key == nil {
		return nil
	}

	q := db.WithContext(ctx).Table(e.Table).Where("is_deleted = ?", false)
	for _, name := range e.NaturalKey {
		q = q.Where(e.Schema.Column(name)+" = ?", key[name])
	}
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return conflict(e, key)
	}
	return nil
}

func conflict(e *Entity, key map[string]any) *apperrors.AppError {
	return apperrors.WithDetails(apperrors.ErrConflict, e.conflictMessage(key), key)
}

// abort maps the cause of a rolled back mutation to the error surfaced to
// the caller. key is the natural key the write attempted, used when a unique
// index catches a collision the pre-write check missed. Only server faults
// are counted and logged as errors; rejected requests are logged at warn.
func abort(e *Entity, op, targetID string, key map[string]any, err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
	case isUniqueConstraintError(err):
		if key != nil {
			appErr = conflict(e, key)
		} else {
			appErr = apperrors.WithMessage(apperrors.ErrConflict, e.Name+" is already present")
		}
	default:
		appErr = apperrors.Wrap(apperrors.ErrMutationFailed, err)
	}

	if !appErr.IsServerFault() {
		logger.Get().Warnw("mutation rejected",
			"entity", e.Name,
			"op", op,
			"target_id", targetID,
			"code", appErr.Code,
			"error", err,
		)
		return appErr
	}

	metrics.MutationAborts.WithLabelValues(e.Name, op).Inc()
	logger.Get().Errorw("mutation aborted",
		"entity", e.Name,
		"op", op,
		"target_id", targetID,
		"error", err,
	)
	return appErr
}

// committed counts a committed mutation.
func committed(e *Entity, action models.AuditAction) {
	metrics.Mutations.WithLabelValues(e.Name, string(action)).Inc()
}

// isUniqueConstraintError checks if a GORM error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // SQLite
		strings.Contains(msg, "duplicate key value violates unique constraint") // PostgreSQL
}
