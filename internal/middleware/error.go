package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "refdata/internal/errors"
	"refdata/internal/logger"
)

// ErrorHandler converts errors set on the Gin context into the response
// envelope when the handler has not written a response. Business errors are
// answered with 200 and success=false; unexpected errors are logged and
// answered with a generic 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && !appErr.IsServerFault() {
			status := http.StatusOK
			if appErr.StatusCode == http.StatusUnauthorized || appErr.StatusCode == http.StatusForbidden {
				status = appErr.StatusCode
			}
			c.JSON(status, gin.H{
				"success": false,
				"message": appErr.Message,
				"data":    nil,
				"errors":  appErr.Fields,
			})
			return
		}

		logger.Get().Errorw("unexpected error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": apperrors.ErrInternalServer.Message,
			"data":    nil,
		})
	}
}

// Recovery turns a panic into the generic server fault envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Get().Errorw("panic recovered",
			"panic", recovered,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": apperrors.ErrInternalServer.Message,
			"data":    nil,
		})
	})
}
