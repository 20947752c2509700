package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/thereayou/vidtube/internal/apperror"
	"github.com/thereayou/vidtube/internal/logging"
)

type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// ErrorHandler turns the last error recorded with c.Error into the error
// envelope. Causes of internal errors are logged and never sent.
func ErrorHandler(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := apperror.From(c.Errors.Last().Err)
		ctx := c.Request.Context()
		if appErr.Kind == apperror.KindInternal {
			log.Error(ctx, "request failed",
				"method", c.Request.Method,
				"path", c.FullPath(),
				"error", c.Errors.Last().Err,
			)
		} else {
			log.Debug(ctx, "request rejected", "path", c.FullPath(), "kind", appErr.Kind, "error", appErr)
		}

		if c.Writer.Written() {
			return
		}

		details := appErr.Details
		if details == nil {
			details = []string{}
		}
		c.AbortWithStatusJSON(appErr.Status(), ErrorResponse{
			StatusCode: appErr.Status(),
			Message:    appErr.Message,
			Success:    false,
			Errors:     details,
		})
	}
}
