package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      Runtime status of all IF-memories
// @Tags         status
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, instances"
// @Router       /api/v1/status [get]
func (h *Handler) listStatuses(c *gin.Context) {
	list := h.services.Monitoring.Statuses(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"count": len(list), "instances": list})
}

// @Summary      Runtime status of one IF-memory
// @Tags         status
// @Produce      json
// @Param        id   path      string  true  "IF-memory id"
// @Success      200  {object}  memory_console.InstanceStatus
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/memories/{id}/status [get]
func (h *Handler) getMemoryStatus(c *gin.Context) {
	id := c.Param("id")
	st, err := h.services.Monitoring.Status(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, "memory_status_failed", err, "memory_id", id)
		return
	}
	c.JSON(http.StatusOK, st)
}
