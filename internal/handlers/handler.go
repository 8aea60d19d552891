package handlers

import (
	"memory_console/internal/logger"
	"memory_console/internal/metrics"
	"memory_console/internal/service"
	"time"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	metrics  *metrics.Metrics
	log      *logger.Logger

	streamInterval time.Duration
}

// NewHandler constructs a new HTTP handler with dependencies. m may be nil.
func NewHandler(services *service.Service, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{services: services, metrics: m, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	h.registerAPIRoutes(router)

	// Status stream (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerMemoryRoutes(api)
		h.registerCatalogRoutes(api)
		h.registerTestRoutes(api)
		h.registerStatusRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerMemoryRoutes(api *gin.RouterGroup) {
	memories := api.Group("/memories")
	{
		memories.GET("", h.listMemories)
		memories.POST("", h.createMemory)
		// Dry runs on an unsaved definition
		memories.POST("/validate", h.validateMemory)
		memories.POST("/preview", h.previewMemory)

		memories.GET("/:id", h.getMemory)
		memories.PUT("/:id", h.updateMemory)
		memories.DELETE("/:id", h.deleteMemory)
		memories.POST("/:id/enable", h.enableMemory)
		memories.POST("/:id/disable", h.disableMemory)
		memories.GET("/:id/status", h.getMemoryStatus)
		memories.POST("/:id/preview", h.previewStoredMemory)
	}
}

func (h *Handler) registerCatalogRoutes(api *gin.RouterGroup) {
	points := api.Group("/points")
	{
		points.GET("", h.listPoints)
		points.PUT("/:id", h.savePoint)
		points.DELETE("/:id", h.deletePoint)
		// Body example: {"value": 21.5}
		points.POST("/:id/sample", h.samplePoint)
	}
	variables := api.Group("/variables")
	{
		variables.GET("", h.listVariables)
		variables.PUT("/:name", h.saveVariable)
		variables.DELETE("/:name", h.deleteVariable)
		variables.PUT("/:name/value", h.setVariableValue)
	}
	api.GET("/values", h.listValues)
}

func (h *Handler) registerTestRoutes(api *gin.RouterGroup) {
	api.POST("/test-condition", h.testCondition)
}

func (h *Handler) registerStatusRoutes(api *gin.RouterGroup) {
	api.GET("/status", h.listStatuses)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
