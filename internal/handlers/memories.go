package handlers

import (
	"memory_console/internal/models"
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      List IF-memories
// @Tags         memories
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, memories"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/memories [get]
func (h *Handler) listMemories(c *gin.Context) {
	list, err := h.services.Memories.List(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, "memories_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "memories": list})
}

// @Summary      Create IF-memory
// @Description  The id is generated when omitted. A disabled definition is stored but not started.
// @Tags         memories
// @Accept       json
// @Produce      json
// @Param        body  body      models.IfMemory  true  "Definition"
// @Success      201   {object}  models.IfMemory
// @Failure      400   {object}  map[string]interface{}
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/memories [post]
func (h *Handler) createMemory(c *gin.Context) {
	var m models.IfMemory
	if !bindJSONOrBadRequest(c, &m) {
		return
	}
	created, err := h.services.Memories.Create(c.Request.Context(), m)
	if err != nil {
		h.respondServiceError(c, "memory_create_failed", err, "name", m.Name)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary      Get IF-memory
// @Tags         memories
// @Produce      json
// @Param        id   path      string  true  "IF-memory id"
// @Success      200  {object}  models.IfMemory
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/memories/{id} [get]
func (h *Handler) getMemory(c *gin.Context) {
	m, err := h.services.Memories.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, "memory_get_failed", err, "memory_id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, m)
}

// @Summary      Replace IF-memory
// @Description  Runtime state survives only when branches, bindings and interval are unchanged.
// @Tags         memories
// @Accept       json
// @Produce      json
// @Param        id    path      string           true  "IF-memory id"
// @Param        body  body      models.IfMemory  true  "Definition"
// @Success      200   {object}  models.IfMemory
// @Failure      400   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/memories/{id} [put]
func (h *Handler) updateMemory(c *gin.Context) {
	var m models.IfMemory
	if !bindJSONOrBadRequest(c, &m) {
		return
	}
	id := c.Param("id")
	updated, err := h.services.Memories.Update(c.Request.Context(), id, m)
	if err != nil {
		h.respondServiceError(c, "memory_update_failed", err, "memory_id", id)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary      Delete IF-memory
// @Tags         memories
// @Produce      json
// @Param        id   path      string  true  "IF-memory id"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/memories/{id} [delete]
func (h *Handler) deleteMemory(c *gin.Context) {
	id := c.Param("id")
	if err := h.services.Memories.Delete(c.Request.Context(), id); err != nil {
		h.respondServiceError(c, "memory_delete_failed", err, "memory_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusDeleted, "id": id})
}

// @Summary      Enable IF-memory
// @Tags         memories
// @Produce      json
// @Param        id   path      string  true  "IF-memory id"
// @Success      200  {object}  models.IfMemory
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/memories/{id}/enable [post]
func (h *Handler) enableMemory(c *gin.Context) {
	h.setEnabled(c, true)
}

// @Summary      Disable IF-memory
// @Description  Stops the timer; the output keeps its last committed value.
// @Tags         memories
// @Produce      json
// @Param        id   path      string  true  "IF-memory id"
// @Success      200  {object}  models.IfMemory
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/memories/{id}/disable [post]
func (h *Handler) disableMemory(c *gin.Context) {
	h.setEnabled(c, false)
}

func (h *Handler) setEnabled(c *gin.Context, enabled bool) {
	id := c.Param("id")
	m, err := h.services.Memories.SetEnabled(c.Request.Context(), id, enabled)
	if err != nil {
		h.respondServiceError(c, "memory_set_enabled_failed", err, "memory_id", id, "enabled", enabled)
		return
	}
	c.JSON(http.StatusOK, m)
}

// @Summary      Validate IF-memory
// @Description  Checks a definition against the declared catalog without saving it. Always 200; see "valid".
// @Tags         memories
// @Accept       json
// @Produce      json
// @Param        body  body      models.IfMemory  true  "Definition"
// @Success      200   {object}  service.ValidationReport
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/memories/validate [post]
func (h *Handler) validateMemory(c *gin.Context) {
	var m models.IfMemory
	if !bindJSONOrBadRequest(c, &m) {
		return
	}
	c.JSON(http.StatusOK, h.services.Memories.Check(c.Request.Context(), m))
}
