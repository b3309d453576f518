package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shahanursiam/sampletrack/internal/services"
)

// AdminHandler handles the admin surfaces: the approval queue, global
// settings and location management.
type AdminHandler struct {
	approvals *services.ApprovalService
	settings  *services.SettingService
	locations *services.LocationService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(approvals *services.ApprovalService, settings *services.SettingService, locations *services.LocationService) *AdminHandler {
	return &AdminHandler{approvals: approvals, settings: settings, locations: locations}
}

// RegisterRoutes registers the admin routes
func (h *AdminHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/approvals", h.ListApprovals)
	router.POST("/approvals/:id", h.HandleApproval)
	router.GET("/settings", h.ListSettings)
	router.PUT("/settings", h.UpdateSetting)
	router.GET("/locations", h.ListLocations)
	router.POST("/locations", h.CreateLocation)
}

// ListApprovals returns the admin review queue
func (h *AdminHandler) ListApprovals(c *gin.Context) {
	dashboard, err := h.approvals.ListPending(c.Request.Context(), identityFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// HandleApproval approves or rejects one deferred mutation
func (h *AdminHandler) HandleApproval(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}
	var body struct {
		Approve  bool   `json:"approve"`
		Response string `json:"response"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.approvals.HandleRequest(c.Request.Context(), identityFrom(c), id, body.Approve, body.Response)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// ListSettings returns the global settings with defaults filled in
func (h *AdminHandler) ListSettings(c *gin.Context) {
	settings, err := h.settings.List(c.Request.Context(), identityFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSetting upserts one global setting
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	var input services.UpdateSettingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.settings.Update(c.Request.Context(), identityFrom(c), input); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListLocations returns all locations
func (h *AdminHandler) ListLocations(c *gin.Context) {
	locations, err := h.locations.List(c.Request.Context(), identityFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

// CreateLocation registers a new location
func (h *AdminHandler) CreateLocation(c *gin.Context) {
	var input services.CreateLocationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	location, err := h.locations.Create(c.Request.Context(), identityFrom(c), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, location)
}
