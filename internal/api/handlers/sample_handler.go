package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shahanursiam/sampletrack/internal/models"
	"github.com/shahanursiam/sampletrack/internal/services"
	"github.com/shahanursiam/sampletrack/internal/tracing"
)

// SampleHandler handles sample-related HTTP requests
type SampleHandler struct {
	samples *services.SampleService
	tracer  tracing.Tracer
}

// NewSampleHandler creates a new sample handler
func NewSampleHandler(samples *services.SampleService, tracer tracing.Tracer) *SampleHandler {
	return &SampleHandler{samples: samples, tracer: tracer}
}

// RegisterRoutes registers the sample routes
func (h *SampleHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/samples", h.Create)
	router.GET("/samples", h.List)
	router.GET("/samples/search", h.Search)
	router.GET("/samples/:id", h.Get)
	router.PATCH("/samples/:id", h.Update)
	router.DELETE("/samples/:id", h.Delete)
	router.GET("/samples/:id/history", h.History)
	router.GET("/movements", h.Movements)
	router.POST("/samples/:id/distribute", h.Distribute)
	router.POST("/samples/:id/return", h.Return)
	router.POST("/scan", h.Scan)
	router.GET("/tracking/:barcode", h.Track)
	router.GET("/inventory/summary", h.Summary)
}

// Create registers a new sample batch
func (h *SampleHandler) Create(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-sample-create")
	defer h.tracer.EndTransaction(txn)

	var input services.CreateSampleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sample, err := h.samples.Create(c.Request.Context(), identityFrom(c), input)
	if err != nil {
		h.tracer.RecordError(txn, err)
		writeError(c, err)
		return
	}
	h.tracer.AddAttribute(txn, "sku", sample.SKU)
	c.JSON(http.StatusCreated, sample)
}

// Get fetches one sample by id
func (h *SampleHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sample id"})
		return
	}
	sample, err := h.samples.GetByID(c.Request.Context(), identityFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sample)
}

// List returns a paginated sample listing
func (h *SampleHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	list, err := h.samples.List(c.Request.Context(), identityFrom(c), c.Query("keyword"), page)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Search runs a full-text sample search
func (h *SampleHandler) Search(c *gin.Context) {
	docs, err := h.samples.Search(c.Request.Context(), identityFrom(c), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": docs})
}

// Update edits a sample, possibly deferring to admin approval
func (h *SampleHandler) Update(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-sample-update")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sample id"})
		return
	}
	var upd models.SampleUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.samples.Update(c.Request.Context(), identityFrom(c), id, upd)
	if err != nil {
		h.tracer.RecordError(txn, err)
		writeError(c, err)
		return
	}
	if result.Deferred {
		c.JSON(http.StatusAccepted, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Delete removes a sample, possibly deferring to admin approval
func (h *SampleHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sample id"})
		return
	}
	result, err := h.samples.Delete(c.Request.Context(), identityFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if result.Deferred {
		c.JSON(http.StatusAccepted, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// History returns a sample's movement trail
func (h *SampleHandler) History(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sample id"})
		return
	}
	entries, err := h.samples.History(c.Request.Context(), identityFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

// Movements returns one page of the global movement feed
func (h *SampleHandler) Movements(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	list, err := h.samples.Movements(c.Request.Context(), identityFrom(c), page)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Distribute moves sample quantity to an internal room
func (h *SampleHandler) Distribute(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-sample-distribute")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sample id"})
		return
	}
	var input services.DistributeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sample, err := h.samples.Distribute(c.Request.Context(), identityFrom(c), id, input)
	if err != nil {
		h.tracer.RecordError(txn, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sample)
}

// Return books previously invoiced stock back in
func (h *SampleHandler) Return(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-sample-return")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sample id"})
		return
	}
	var input services.ReturnInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sample, err := h.samples.Return(c.Request.Context(), identityFrom(c), id, input)
	if err != nil {
		h.tracer.RecordError(txn, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sample)
}

// Scan applies a barcode scan
func (h *SampleHandler) Scan(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-scan")
	defer h.tracer.EndTransaction(txn)

	var input services.ScanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.tracer.AddAttribute(txn, "barcode", input.Barcode)

	sample, err := h.samples.Scan(c.Request.Context(), identityFrom(c), input)
	if err != nil {
		h.tracer.RecordError(txn, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sample)
}

// Track resolves a barcode to its sample and movement trail
func (h *SampleHandler) Track(c *gin.Context) {
	ident := identityFrom(c)
	sample, err := h.samples.LookupByBarcode(c.Request.Context(), ident, c.Param("barcode"))
	if err != nil {
		writeError(c, err)
		return
	}
	history, err := h.samples.History(c.Request.Context(), ident, sample.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sample": sample, "history": history})
}

// Summary returns the per-location and per-status inventory aggregation
func (h *SampleHandler) Summary(c *gin.Context) {
	summary, err := h.samples.Summary(c.Request.Context(), identityFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
