package services

import (
	"context"
	"io"

	"gorm.io/gorm"

	"refdata/internal/models"
	"refdata/internal/pagination"
)

// AuditServicer defines the contract for the per-entity audit trail.
type AuditServicer interface {
	Record(tx *gorm.DB, table string, action models.AuditAction, id, actor string, record any) error
	Trail(ctx context.Context, table, id string, page pagination.PageRequest) (*pagination.PageResponse[models.AuditRecord], error)
}

// ConfigServicer defines the contract of an audited config entity service.
type ConfigServicer[T any] interface {
	Entity() *Entity
	Create(ctx context.Context, input map[string]any, actor string) (*T, error)
	Update(ctx context.Context, id string, input map[string]any, actor string) (*T, error)
	Delete(ctx context.Context, id, reason, actor string) (*T, error)
	Get(ctx context.Context, id string) (*T, error)
	List(ctx context.Context, query ListQuery) (*pagination.PageResponse[T], error)
	AuditTrail(ctx context.Context, id string, page pagination.PageRequest) (*pagination.PageResponse[models.AuditRecord], error)
	TemplateHeader() []string
}

// RowCreator runs the single-record create pipeline for one imported row.
type RowCreator interface {
	CreateRow(ctx context.Context, input map[string]any, actor string) (any, error)
}

// BondServicer defines the contract for bond securities, built and edited section by section.
type BondServicer interface {
	ConfigServicer[models.BondSecurity]
	RowCreator
	UpdateSection(ctx context.Context, section, id string, input map[string]any, actor string) (*models.BondSecurity, error)
	RemoveAttachment(ctx context.Context, id, attachment, actor string) (*models.BondSecurity, error)
	BulkDelete(ctx context.Context, ids []string, reason, actor string) (int, error)
}

// ImportServicer defines the contract for the bulk importer.
type ImportServicer interface {
	Import(ctx context.Context, slug string, file io.Reader, fileName, actor string) (*models.ProcessRequest, error)
}

// ProcessServicer defines the contract for reading import jobs.
type ProcessServicer interface {
	Get(ctx context.Context, id string) (*models.ProcessRequest, error)
}
