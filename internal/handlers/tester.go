package handlers

import (
	"memory_console/internal/models"
	"memory_console/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// TestConditionRequest is the dry-run payload of /test-condition.
type TestConditionRequest struct {
	// Condition text, aliases in square brackets
	Condition string `json:"condition" binding:"required" example:"[temp] < [setpoint]"`
	// Bindings the condition may reference
	Bindings []models.VariableBinding `json:"bindings"`
}

// @Summary      Test a condition
// @Description  Resolves the bindings and evaluates the condition once. Resolve and evaluate failures are reported in the body with valid=false.
// @Tags         test
// @Accept       json
// @Produce      json
// @Param        body  body      TestConditionRequest  true  "Condition and bindings"
// @Success      200   {object}  memory_console.TestConditionResult
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/test-condition [post]
func (h *Handler) testCondition(c *gin.Context) {
	var req TestConditionRequest
	if !bindJSONOrBadRequest(c, &req) {
		return
	}
	res, err := h.services.Tester.TestCondition(c.Request.Context(), service.TestParams{
		Condition: req.Condition,
		Bindings:  req.Bindings,
	})
	if err != nil {
		h.respondServiceError(c, "test_condition_failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Preview an unsaved IF-memory
// @Description  Evaluates every branch once against live values. Nothing is committed and no hysteresis is applied.
// @Tags         test
// @Accept       json
// @Produce      json
// @Param        body  body      models.IfMemory  true  "Definition"
// @Success      200   {object}  memory_console.PreviewResult
// @Failure      400   {object}  map[string]interface{}
// @Router       /api/v1/memories/preview [post]
func (h *Handler) previewMemory(c *gin.Context) {
	var m models.IfMemory
	if !bindJSONOrBadRequest(c, &m) {
		return
	}
	res, err := h.services.Tester.Preview(c.Request.Context(), m)
	if err != nil {
		h.respondServiceError(c, "memory_preview_failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Preview a stored IF-memory
// @Tags         test
// @Produce      json
// @Param        id   path      string  true  "IF-memory id"
// @Success      200  {object}  memory_console.PreviewResult
// @Failure      404  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Router       /api/v1/memories/{id}/preview [post]
func (h *Handler) previewStoredMemory(c *gin.Context) {
	id := c.Param("id")
	res, err := h.services.Tester.PreviewStored(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, "memory_preview_failed", err, "memory_id", id)
		return
	}
	c.JSON(http.StatusOK, res)
}
