package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
)

// Problems renders the last error a handler attached with c.Error as RFC 7807
// problem details. Known errors are logged at warn, the rest at error.
func Problems(logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("errors")
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		fields := []zap.Field{
			zap.String("request_id", c.GetString(CtxRequestID)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		}
		if apperr.Known(err) {
			logger.Warn("request failed", fields...)
		} else {
			logger.Error("unhandled error", fields...)
		}

		problem := apperr.ProblemFor(err, c.Request.URL.Path)
		c.JSON(problem.Status, problem)
	}
}
