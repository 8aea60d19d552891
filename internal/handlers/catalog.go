package handlers

import (
	"memory_console/internal/models"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PointRequest is the payload for declaring a point under a given id.
type PointRequest struct {
	Name string `json:"name" binding:"required" example:"Boiler temperature"`
	// Signal type. Allowed: Digital, Analog
	Kind     models.PointKind `json:"kind" binding:"required" example:"Analog"`
	Writable bool             `json:"writable"`
}

// VariableRequest is the payload for declaring a global variable under a given name.
type VariableRequest struct {
	// Allowed: number, bool
	Kind         models.ScalarKind `json:"kind" swaggertype:"string" example:"number"`
	InitialValue models.Scalar     `json:"initial_value" swaggertype:"number" example:"20"`
	Description  string            `json:"description,omitempty"`
}

// ValueRequest carries one scalar reading or assignment.
type ValueRequest struct {
	// Number or boolean
	Value *models.Scalar `json:"value" binding:"required" swaggertype:"number" example:"21.5"`
}

// @Summary      List points
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, points"
// @Router       /api/v1/points [get]
func (h *Handler) listPoints(c *gin.Context) {
	list, err := h.services.Catalog.ListPoints(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, "points_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "points": list})
}

// @Summary      Declare or update a point
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id    path      string        true  "Point GUID"
// @Param        body  body      PointRequest  true  "Point"
// @Success      200   {object}  models.Point
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/points/{id} [put]
func (h *Handler) savePoint(c *gin.Context) {
	var req PointRequest
	if !bindJSONOrBadRequest(c, &req) {
		return
	}
	p := models.Point{ID: c.Param("id"), Name: req.Name, Kind: req.Kind, Writable: req.Writable}
	if err := h.services.Catalog.SavePoint(c.Request.Context(), p); err != nil {
		h.respondServiceError(c, "point_save_failed", err, "point_id", p.ID)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Delete a point
// @Tags         catalog
// @Produce      json
// @Param        id   path      string  true  "Point GUID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/points/{id} [delete]
func (h *Handler) deletePoint(c *gin.Context) {
	id := c.Param("id")
	if err := h.services.Catalog.DeletePoint(c.Request.Context(), id); err != nil {
		h.respondServiceError(c, "point_delete_failed", err, "point_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusDeleted, "id": id})
}

// @Summary      Record a point sample
// @Description  Feeds a field reading into the live store, as a field bus would.
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        id    path      string        true  "Point GUID"
// @Param        body  body      ValueRequest  true  "Reading"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/points/{id}/sample [post]
func (h *Handler) samplePoint(c *gin.Context) {
	var req ValueRequest
	if !bindJSONOrBadRequest(c, &req) {
		return
	}
	id := c.Param("id")
	if err := h.services.Catalog.Sample(c.Request.Context(), id, *req.Value); err != nil {
		h.respondServiceError(c, "point_sample_failed", err, "point_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSampled, "id": id})
}

// @Summary      List global variables
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, variables"
// @Router       /api/v1/variables [get]
func (h *Handler) listVariables(c *gin.Context) {
	list, err := h.services.Catalog.ListVariables(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, "variables_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "variables": list})
}

// @Summary      Declare or update a global variable
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        name  path      string           true  "Variable name"
// @Param        body  body      VariableRequest  true  "Variable"
// @Success      200   {object}  models.GlobalVariable
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/variables/{name} [put]
func (h *Handler) saveVariable(c *gin.Context) {
	var req VariableRequest
	if !bindJSONOrBadRequest(c, &req) {
		return
	}
	v := models.GlobalVariable{
		Name:         c.Param("name"),
		Kind:         req.Kind,
		InitialValue: req.InitialValue.Convert(req.Kind),
		Description:  req.Description,
	}
	if err := h.services.Catalog.SaveVariable(c.Request.Context(), v); err != nil {
		h.respondServiceError(c, "variable_save_failed", err, "name", v.Name)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary      Delete a global variable
// @Tags         catalog
// @Produce      json
// @Param        name  path      string  true  "Variable name"
// @Success      200   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/variables/{name} [delete]
func (h *Handler) deleteVariable(c *gin.Context) {
	name := c.Param("name")
	if err := h.services.Catalog.DeleteVariable(c.Request.Context(), name); err != nil {
		h.respondServiceError(c, "variable_delete_failed", err, "name", name)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusDeleted, "name": name})
}

// @Summary      Set the current value of a global variable
// @Description  The value is converted to the declared kind.
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        name  path      string        true  "Variable name"
// @Param        body  body      ValueRequest  true  "Value"
// @Success      200   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/variables/{name}/value [put]
func (h *Handler) setVariableValue(c *gin.Context) {
	var req ValueRequest
	if !bindJSONOrBadRequest(c, &req) {
		return
	}
	name := c.Param("name")
	if err := h.services.Catalog.SetVariable(c.Request.Context(), name, *req.Value); err != nil {
		h.respondServiceError(c, "variable_set_failed", err, "name", name)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSet, "name": name})
}

// @Summary      Current live values
// @Description  Every sampled point and every global variable, ordered by reference.
// @Tags         catalog
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, values"
// @Router       /api/v1/values [get]
func (h *Handler) listValues(c *gin.Context) {
	list := h.services.Catalog.Values(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"count": len(list), "values": list})
}
