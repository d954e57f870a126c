package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "refdata/internal/errors"
	"refdata/internal/models"
	"refdata/internal/pagination"
	"refdata/internal/schema"
	"refdata/internal/sequence"
)

// Resource is the audited CRUD service of one config entity type.
type Resource[T any] struct {
	db *gorm.DB
	mutator
}

// NewResource creates the service of entity backed by model T.
func NewResource[T any](db *gorm.DB, entity *Entity, seq *sequence.Sequencer, audit AuditServicer) *Resource[T] {
	return &Resource[T]{
		db:      db,
		mutator: mutator{entity: entity, seq: seq, audit: audit},
	}
}

// Entity returns the metadata of the served entity.
func (r *Resource[T]) Entity() *Entity {
	return r.entity
}

// Create validates input, checks the natural key and inserts the record with
// its CREATE audit entry in one transaction.
func (r *Resource[T]) Create(ctx context.Context, input map[string]any, actor string) (*T, error) {
	db := r.db.WithContext(ctx)
	values, err := r.entity.Schema.Validate(ctx, input, schema.ModeCreate, liveReferences{db: db})
	if err != nil {
		return nil, err
	}
	if err := checkUnique(ctx, db, r.entity, values, nil, ""); err != nil {
		return nil, err
	}

	var created *T
	err = db.Transaction(func(tx *gorm.DB) error {
		rec, err := insert[T](tx, r.mutator, values, actor)
		if err != nil {
			return err
		}
		created = rec
		return nil
	})
	if err != nil {
		return nil, abort(r.entity, OpCreate, "", naturalKey(r.entity, values, nil), err)
	}
	committed(r.entity, models.AuditActionCreate)
	return created, nil
}

// CreateRow creates one record on behalf of the bulk importer.
func (r *Resource[T]) CreateRow(ctx context.Context, input map[string]any, actor string) (any, error) {
	return r.Create(ctx, input, actor)
}

// Update merges the supplied fields into a live record. The natural key is
// checked against the record's resulting full key.
func (r *Resource[T]) Update(ctx context.Context, id string, input map[string]any, actor string) (*T, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)
	values, err := r.entity.Schema.Validate(ctx, input, schema.ModeUpdate, liveReferences{db: db})
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "no updatable fields supplied")
	}
	if err := checkUnique(ctx, db, r.entity, values, asFields(current), id); err != nil {
		return nil, err
	}

	cols := r.entity.Schema.Columns(values)
	var updated *T
	err = db.Transaction(func(tx *gorm.DB) error {
		rec, err := update[T](tx, r.mutator, id, cols, actor, true)
		if err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, abort(r.entity, OpUpdate, id, naturalKey(r.entity, values, asFields(current)), err)
	}
	committed(r.entity, models.AuditActionEdit)
	return updated, nil
}

// Delete soft-deletes a live record.
func (r *Resource[T]) Delete(ctx context.Context, id, reason, actor string) (*T, error) {
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}

	var deleted *T
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := softDelete[T](tx, r.mutator, id, strings.TrimSpace(reason), actor)
		if err != nil {
			return err
		}
		deleted = rec
		return nil
	})
	if err != nil {
		return nil, abort(r.entity, OpDelete, id, nil, err)
	}
	committed(r.entity, models.AuditActionDelete)
	return deleted, nil
}

// Get returns a live record with its references resolved.
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	if !models.IsID(id) {
		return nil, notFound(r.entity)
	}

	rec := new(T)
	q := r.preload(r.db.WithContext(ctx))
	if err := q.Where("id = ? AND is_deleted = ?", id, false).Take(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(r.entity)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rec, nil
}

// List returns a page of records, live only unless IncludeDeleted is set,
// optionally filtered by a case-insensitive prefix on one allow-listed field.
func (r *Resource[T]) List(ctx context.Context, query ListQuery) (*pagination.PageResponse[T], error) {
	page := query.PageRequest
	page.Defaults(r.entity.PerPage)

	base := r.db.WithContext(ctx).Model(new(T))
	if !query.IncludeDeleted {
		base = base.Where("is_deleted = ?", false)
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		col, ok := r.entity.searchColumn(query.SearchKey)
		if !ok {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "searchKey '"+query.SearchKey+"' is not searchable")
		}
		base = base.Where("LOWER("+col+") LIKE ? ESCAPE '!'", prefixPattern(search))
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var records []T
	if err := r.preload(base).Order("created_at DESC").Order("id DESC").
		Scopes(pagination.Paginate(page)).Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(records, page.Page, page.PerPage, total)
	return &result, nil
}

// AuditTrail lists the audit entries of a record, deleted or not.
func (r *Resource[T]) AuditTrail(ctx context.Context, id string, page pagination.PageRequest) (*pagination.PageResponse[models.AuditRecord], error) {
	if !models.IsID(id) {
		return nil, notFound(r.entity)
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return nil, notFound(r.entity)
	}
	return r.audit.Trail(ctx, r.entity.Table, id, page)
}

// TemplateHeader returns the column header of the bulk insert file.
func (r *Resource[T]) TemplateHeader() []string {
	return r.entity.Schema.Header()
}

func (r *Resource[T]) preload(db *gorm.DB) *gorm.DB {
	for _, assoc := range r.entity.Preloads {
		db = db.Preload(assoc)
	}
	return db
}

// prefixPattern builds a LIKE pattern matching values starting with s,
// escaping wildcards with '!'.
func prefixPattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(strings.ToLower(s)) + "%"
}
