package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"refdata/internal/models"
)

// Uploads stores attachment files on local disk and caps multipart bodies.
type Uploads struct {
	Dir      string
	MaxBytes int64
}

// NewUploads creates an upload store rooted at dir.
func NewUploads(dir string, maxBytes int64) *Uploads {
	return &Uploads{Dir: dir, MaxBytes: maxBytes}
}

func (u *Uploads) limit(c *gin.Context) {
	if u == nil || u.MaxBytes <= 0 {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, u.MaxBytes)
}

func (u *Uploads) maxLabel() string {
	if u == nil || u.MaxBytes <= 0 {
		return "the upload limit"
	}
	return fmt.Sprintf("%d MB", u.MaxBytes>>20)
}

// Save writes one uploaded file under a unique name and returns its stored path.
func (u *Uploads) Save(c *gin.Context, fh *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(u.Dir, 0o750); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := strings.ReplaceAll(filepath.Base(fh.Filename), " ", "_")
	if name == "." || name == string(filepath.Separator) {
		name = "attachment"
	}
	dst := filepath.Join(u.Dir, models.NewID()+"-"+name)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", fmt.Errorf("save %s: %w", fh.Filename, err)
	}
	return dst, nil
}
