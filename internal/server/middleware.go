package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/morozRed/notegraph/internal/errs"
	"github.com/morozRed/notegraph/internal/notebook"
)

const loggerKey = "logger"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// requestContext tags each request with an id and a logger carrying it.
func (s *Server) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		logger := s.logger.With("request_id", requestID)
		c.Set(loggerKey, logger)

		started := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(started))
	}
}

func requestLogger(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if logger, ok := v.(*slog.Logger); ok {
			return logger
		}
	}
	return slog.Default()
}

// writeError maps err onto a status code and error code.
func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, errs.ErrPath):
		status, code = http.StatusBadRequest, "INVALID_PATH"
	case errors.Is(err, errs.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, notebook.ErrScanSuperseded):
		status, code = http.StatusConflict, "SCAN_SUPERSEDED"
	case errors.Is(err, notebook.ErrReadOnly):
		status, code = http.StatusForbidden, "READ_ONLY"
	}

	logger := requestLogger(c)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	} else {
		logger.Warn("request rejected", "code", code, "error", err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func badRequest(c *gin.Context, err error) {
	requestLogger(c).Warn("invalid request body", "error", err)
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: "invalid request body",
		Code:  "INVALID_REQUEST",
	})
}
