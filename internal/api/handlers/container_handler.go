package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shahanursiam/sampletrack/internal/services"
	"github.com/shahanursiam/sampletrack/internal/tracing"
)

// ContainerHandler handles container-related HTTP requests
type ContainerHandler struct {
	containers *services.ContainerService
	tracer     tracing.Tracer
}

// NewContainerHandler creates a new container handler
func NewContainerHandler(containers *services.ContainerService, tracer tracing.Tracer) *ContainerHandler {
	return &ContainerHandler{containers: containers, tracer: tracer}
}

// RegisterRoutes registers the container routes
func (h *ContainerHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/containers", h.Create)
	router.GET("/containers/:barcode", h.Get)
	router.POST("/containers/:barcode/items", h.AddItem)
}

// Create registers a new physical container
func (h *ContainerHandler) Create(c *gin.Context) {
	var input services.CreateContainerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	container, err := h.containers.Create(c.Request.Context(), identityFrom(c), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, container)
}

// Get looks a container up by barcode with its contents populated
func (h *ContainerHandler) Get(c *gin.Context) {
	detail, err := h.containers.GetByBarcode(c.Request.Context(), identityFrom(c), c.Param("barcode"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// AddItem places sample stock into a container
func (h *ContainerHandler) AddItem(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-container-add-item")
	defer h.tracer.EndTransaction(txn)

	var input services.AddItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.tracer.AddAttribute(txn, "identifier", input.Identifier)

	container, err := h.containers.AddItem(c.Request.Context(), identityFrom(c), c.Param("barcode"), input)
	if err != nil {
		h.tracer.RecordError(txn, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, container)
}
