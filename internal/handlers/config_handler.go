package handlers

import (
	"bytes"
	"encoding/csv"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "refdata/internal/errors"
	"refdata/internal/middleware"
	"refdata/internal/pagination"
	"refdata/internal/services"
)

// ConfigHandler serves the uniform route set of one config entity.
type ConfigHandler[T any] struct {
	service services.ConfigServicer[T]
	imports services.ImportServicer
	uploads *Uploads
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler[T any](service services.ConfigServicer[T], imports services.ImportServicer, uploads *Uploads) *ConfigHandler[T] {
	return &ConfigHandler[T]{service: service, imports: imports, uploads: uploads}
}

// Register mounts the entity routes on rg, each guarded by its permission.
func (h *ConfigHandler[T]) Register(rg *gin.RouterGroup) {
	e := h.service.Entity()
	perm := func(action string) gin.HandlerFunc {
		return middleware.RequirePermission(e.PermissionFor(action))
	}

	rg.POST("/add", perm("create"), h.Create)
	rg.POST("/add/bulk", perm("create"), h.BulkCreate)
	rg.PUT("/update/:id", perm("edit"), h.Update)
	rg.GET("/get-all", perm("read"), h.List)
	rg.GET("/get/:id", perm("read"), h.Get)
	rg.DELETE("/delete/:id", perm("delete"), h.Delete)
	rg.GET("/get-demo-bulk-insert-file/csv", perm("read"), h.Template)
	rg.GET("/get-audit/:id", perm("read"), h.AuditTrail)
}

// Create handles POST /add.
func (h *ConfigHandler[T]) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	input, err := bindInput(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rec, err := h.service.Create(c.Request.Context(), input, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, h.service.Entity().Name+" added successfully", rec)
}

// BulkCreate handles POST /add/bulk with a multipart "file" field.
func (h *ConfigHandler[T]) BulkCreate(c *gin.Context) {
	bulkImport(c, h.imports, h.uploads, h.service.Entity())
}

// Update handles PUT /update/:id.
func (h *ConfigHandler[T]) Update(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	input, err := bindInput(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rec, err := h.service.Update(c.Request.Context(), c.Param("id"), input, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, h.service.Entity().Name+" updated successfully", rec)
}

// List handles GET /get-all.
func (h *ConfigHandler[T]) List(c *gin.Context) {
	var query services.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid list query"))
		return
	}

	page, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, h.service.Entity().Name+" list", page)
}

// Get handles GET /get/:id.
func (h *ConfigHandler[T]) Get(c *gin.Context) {
	rec, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, h.service.Entity().Name+" details", rec)
}

// Delete handles DELETE /delete/:id?deleteReason=.
func (h *ConfigHandler[T]) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rec, err := h.service.Delete(c.Request.Context(), c.Param("id"), c.Query("deleteReason"), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, h.service.Entity().Name+" deleted successfully", rec)
}

// Template handles GET /get-demo-bulk-insert-file/csv.
func (h *ConfigHandler[T]) Template(c *gin.Context) {
	sendTemplate(c, h.service.Entity().Slug, h.service.TemplateHeader())
}

// AuditTrail handles GET /get-audit/:id.
func (h *ConfigHandler[T]) AuditTrail(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid page query"))
		return
	}

	trail, err := h.service.AuditTrail(c.Request.Context(), c.Param("id"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, h.service.Entity().Name+" audit trail", trail)
}

func bulkImport(c *gin.Context, imports services.ImportServicer, uploads *Uploads, e *services.Entity) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	uploads.limit(c)
	fh, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithFields(apperrors.ErrInvalidInput, map[string]string{
			"file": "a CSV file of at most " + uploads.maxLabel() + " is required",
		}))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer f.Close()

	proc, err := imports.Import(c.Request.Context(), e.Slug, f, fh.Filename, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, e.Name+" bulk insert processed", proc)
}

func sendTemplate(c *gin.Context, slug string, header []string) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	w.Flush()

	c.Header("Content-Disposition", `attachment; filename="`+slug+`-bulk-insert.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
