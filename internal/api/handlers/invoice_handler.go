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

// InvoiceHandler handles invoice-related HTTP requests
type InvoiceHandler struct {
	invoices *services.InvoiceService
	tracer   tracing.Tracer
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoices *services.InvoiceService, tracer tracing.Tracer) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, tracer: tracer}
}

// RegisterRoutes registers the invoice routes
func (h *InvoiceHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/invoices", h.Create)
	router.GET("/invoices", h.List)
	router.GET("/invoices/:id", h.Get)
	router.POST("/invoices/:id/approve", h.Approve)
	router.POST("/invoices/:id/reject", h.Reject)
}

// Create raises a new outbound invoice; stock is deducted immediately
func (h *InvoiceHandler) Create(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-invoice-create")
	defer h.tracer.EndTransaction(txn)

	var input services.CreateInvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoice, err := h.invoices.Create(c.Request.Context(), identityFrom(c), input)
	if err != nil {
		h.tracer.RecordError(txn, err)
		writeError(c, err)
		return
	}
	h.tracer.AddAttribute(txn, "invoice_no", invoice.InvoiceNo)
	c.JSON(http.StatusCreated, invoice)
}

// Get fetches one invoice with its line items
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return
	}
	invoice, err := h.invoices.GetByID(c.Request.Context(), identityFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// List returns a paginated invoice listing
func (h *InvoiceHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	status := models.InvoiceStatus(c.Query("status"))
	list, err := h.invoices.List(c.Request.Context(), identityFrom(c), status, page)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Approve finalizes a pending invoice
func (h *InvoiceHandler) Approve(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-invoice-approve")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return
	}
	invoice, err := h.invoices.Approve(c.Request.Context(), identityFrom(c), id)
	if err != nil {
		h.tracer.RecordError(txn, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// Reject refuses a pending invoice and restores the deducted stock
func (h *InvoiceHandler) Reject(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-invoice-reject")
	defer h.tracer.EndTransaction(txn)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)

	invoice, err := h.invoices.Reject(c.Request.Context(), identityFrom(c), id, body.Reason)
	if err != nil {
		h.tracer.RecordError(txn, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}
