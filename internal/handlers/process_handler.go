package handlers

import (
	"github.com/gin-gonic/gin"

	apperrors "refdata/internal/errors"
	"refdata/internal/middleware"
	"refdata/internal/services"
)

// ProcessHandler serves bulk import jobs.
type ProcessHandler struct {
	processes services.ProcessServicer
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(processes services.ProcessServicer) *ProcessHandler {
	return &ProcessHandler{processes: processes}
}

// Get handles GET /process/get/:id. The caller needs the read permission of
// the entity the job imported.
func (h *ProcessHandler) Get(c *gin.Context) {
	proc, err := h.processes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	e, ok := services.EntityBySlug(proc.Entity)
	if !ok || !middleware.HasPermission(c, e.PermissionFor("read")) {
		respondWithError(c, apperrors.ErrForbidden)
		return
	}
	respond(c, "process request details", proc)
}
