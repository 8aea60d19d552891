package handlers

import (
	"errors"
	"memory_console/internal/engine"
	"memory_console/internal/models"
	"memory_console/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK      = "ok"
	statusDeleted = "deleted"
	statusSampled = "sampled"
	statusSet     = "set"

	errInvalidBodyPref = "invalid body: "
	errInternal        = "internal error"
)

// statusFor maps service errors onto HTTP codes. Anything unknown is a 500.
func statusFor(err error) int {
	var (
		verrs models.ValidationErrors
		rerr  *engine.ResolutionError
	)
	switch {
	case errors.As(err, &rerr):
		// a binding could not be read from the live store
		return http.StatusUnprocessableEntity
	case errors.As(err, &verrs), errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, models.ErrTypeMismatch), errors.Is(err, models.ErrNotWritable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondServiceError writes err with the mapped status. Client errors carry
// the service message; 500s are logged and hidden behind errInternal.
func (h *Handler) respondServiceError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.logAndJSONError(c, code, errInternal, logKey, err, kv...)
		return
	}
	var verrs models.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(code, gin.H{"error": err.Error(), "errors": verrs})
		return
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

// bindJSONOrBadRequest decodes the body into dst and answers 400 on failure.
func bindJSONOrBadRequest(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}
