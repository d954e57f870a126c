package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "refdata/internal/errors"
	"refdata/internal/logger"
	"refdata/internal/middleware"
)

// Envelope is the uniform body of every API response. Business failures are
// sent with HTTP 200 and Success=false; callers must inspect the envelope.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Errors  any    `json:"errors,omitempty"`
}

// respond writes a successful envelope.
func respond(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// bindInput decodes a JSON object body into loosely typed input for the
// validation layer.
func bindInput(c *gin.Context) (map[string]any, error) {
	var input map[string]any
	if err := c.ShouldBindJSON(&input); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "request body must be a JSON object")
	}
	if input == nil {
		input = map[string]any{}
	}
	return input, nil
}

// splitIDs parses a comma separated id list.
func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// respondWithError writes the envelope for err. Business errors answer 200
// with success=false, 401 and 403 keep their status, and anything else is
// logged and answered with a generic 500.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && !appErr.IsServerFault() {
		status := http.StatusOK
		if appErr.StatusCode == http.StatusUnauthorized || appErr.StatusCode == http.StatusForbidden {
			status = appErr.StatusCode
		}
		env := Envelope{Message: appErr.Message}
		switch {
		case len(appErr.Fields) > 0:
			env.Errors = appErr.Fields
		case len(appErr.Details) > 0:
			env.Errors = appErr.Details
		}
		c.JSON(status, env)
		return
	}

	if appErr != nil {
		logger.Get().Errorw("app error",
			"code", appErr.Code,
			"internal", appErr.Internal,
			"path", c.Request.URL.Path,
		)
	} else {
		logger.Get().Errorw("unexpected error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
	}
	c.JSON(http.StatusInternalServerError, Envelope{Message: apperrors.ErrInternalServer.Message})
}
