package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/whogoverns/api/internal/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

const internalErrorDetail = "internal server error"

// writeError maps err onto the HTTP status taxonomy: validation failures are
// 400, unknown countries 404, everything else 500 with a generic message.
func (s *Server) writeError(c *gin.Context, err error) {
	c.Header("Cache-Control", "no-store")

	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: err.Error()})
	default:
		requestLogger(c).Error("request failed", "error", err)
		if s.metrics != nil {
			s.metrics.StoreErrors.Inc()
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: internalErrorDetail})
	}
}

// recovery converts panics into the standard 500 body.
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		requestLogger(c).Error("panic recovered", "panic", rec)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Detail: internalErrorDetail})
	})
}

// requestLogger returns the request-scoped logger, tagged with the trace id
// when the request is being traced.
func requestLogger(c *gin.Context) *slog.Logger {
	logger := slog.Default()
	if l, ok := c.Get(loggerKey); ok {
		if rl, ok := l.(*slog.Logger); ok {
			logger = rl
		}
	}
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
		logger = logger.With("trace_id", sc.TraceID().String())
	}
	return logger
}
