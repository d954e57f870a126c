package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "refdata/internal/errors"
	"refdata/internal/middleware"
	"refdata/internal/models"
	"refdata/internal/services"
)

// BondHandler serves bond securities: the uniform entity routes plus the
// per-section edit, attachment and bulk delete routes.
type BondHandler struct {
	*ConfigHandler[models.BondSecurity]
	bonds services.BondServicer
}

// NewBondHandler creates a new BondHandler.
func NewBondHandler(bonds services.BondServicer, imports services.ImportServicer, uploads *Uploads) *BondHandler {
	return &BondHandler{
		ConfigHandler: NewConfigHandler[models.BondSecurity](bonds, imports, uploads),
		bonds:         bonds,
	}
}

// RemoveAttachmentRequest is the body of the attachment removal route.
type RemoveAttachmentRequest struct {
	Attachment string `json:"attachment" binding:"required"`
}

// Register mounts every bond route on rg.
func (h *BondHandler) Register(rg *gin.RouterGroup) {
	h.ConfigHandler.Register(rg)

	e := h.bonds.Entity()
	edit := middleware.RequirePermission(e.PermissionFor("edit"))
	for _, slug := range services.BondSections() {
		if slug == services.SectionComments {
			rg.PUT("/update/"+slug+"/:id", edit, h.UpdateComments)
			continue
		}
		rg.PUT("/update/"+slug+"/:id", edit, h.UpdateSection(slug))
	}
	rg.PUT("/update/attachments/remove/:id", edit, h.RemoveAttachment)
	rg.DELETE("/bulk/delete", middleware.RequirePermission(e.PermissionFor("delete")), h.BulkDelete)
}

// UpdateSection returns the handler of PUT /update/<section>/:id.
func (h *BondHandler) UpdateSection(slug string) gin.HandlerFunc {
	return func(c *gin.Context) {
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

		bond, err := h.bonds.UpdateSection(c.Request.Context(), slug, c.Param("id"), input, userID)
		if err != nil {
			respondWithError(c, err)
			return
		}
		respond(c, "bondSecurity "+slug+" updated successfully", bond)
	}
}

// UpdateComments handles PUT /update/comments-and-attachments/:id. It takes
// either a JSON body or a multipart form whose "attachments" files are stored
// and appended.
func (h *BondHandler) UpdateComments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var input map[string]any
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		input, err = h.commentsForm(c)
	} else {
		input, err = bindInput(c)
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	bond, err := h.bonds.UpdateSection(c.Request.Context(), services.SectionComments, c.Param("id"), input, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, "bondSecurity "+services.SectionComments+" updated successfully", bond)
}

func (h *BondHandler) commentsForm(c *gin.Context) (map[string]any, error) {
	h.uploads.limit(c)
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid multipart form")
	}

	input := map[string]any{}
	if v, ok := form.Value["comments"]; ok && len(v) > 0 {
		input["comments"] = v[0]
	}
	if files := form.File["attachments"]; len(files) > 0 {
		paths := make([]any, 0, len(files))
		for _, fh := range files {
			path, err := h.uploads.Save(c, fh)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			paths = append(paths, path)
		}
		input["attachments"] = paths
	}
	return input, nil
}

// RemoveAttachment handles PUT /update/attachments/remove/:id.
func (h *BondHandler) RemoveAttachment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req RemoveAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithFields(apperrors.ErrInvalidInput, map[string]string{"attachment": "is required"}))
		return
	}

	bond, err := h.bonds.RemoveAttachment(c.Request.Context(), c.Param("id"), req.Attachment, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, "attachment removed successfully", bond)
}

// BulkDelete handles DELETE /bulk/delete?ids=a,b&deleteReason=.
func (h *BondHandler) BulkDelete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	n, err := h.bonds.BulkDelete(c.Request.Context(), splitIDs(c.Query("ids")), c.Query("deleteReason"), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, "bondSecurity records deleted successfully", gin.H{"deleted": n})
}
