package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database/models"
	"github.com/invomate/backend-go/internal/database/service"
)

// InvoiceHandler handles invoice CRUD, export and share API requests
type InvoiceHandler struct {
	invoiceService service.InvoiceService
	userService    service.UserService
	logger         *slog.Logger
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(invoiceService service.InvoiceService, userService service.UserService, logger *slog.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		userService:    userService,
		logger:         logger,
	}
}

type InvoiceItemRequest struct {
	ProductID   *uint   `json:"product_id,omitempty"`
	Description string  `json:"description" binding:"required,max=512"`
	Quantity    float64 `json:"quantity" binding:"gt=0"`
	UnitPrice   int64   `json:"unit_price" binding:"gte=0"`
	TaxRate     float64 `json:"tax_rate" binding:"gte=0,lte=100"`
}

type InvoiceRequest struct {
	ClientID      *uint                `json:"client_id,omitempty"`
	InvoiceNumber string               `json:"invoice_number" binding:"required,max=64"`
	Template      string               `json:"template" binding:"omitempty,max=64"`
	IssueDate     time.Time            `json:"issue_date" binding:"required"`
	DueDate       *time.Time           `json:"due_date,omitempty"`
	Currency      string               `json:"currency" binding:"omitempty,max=8"`
	Notes         string               `json:"notes" binding:"omitempty,max=2048"`
	Items         []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
}

func (req *InvoiceRequest) toModel() *models.Invoice {
	invoice := &models.Invoice{
		ClientID:      req.ClientID,
		InvoiceNumber: req.InvoiceNumber,
		Template:      req.Template,
		Status:        models.InvoiceStatusDraft,
		IssueDate:     req.IssueDate,
		DueDate:       req.DueDate,
		Currency:      req.Currency,
		Notes:         req.Notes,
	}
	if invoice.Currency == "" {
		invoice.Currency = "INR"
	}

	for _, item := range req.Items {
		amount := int64(float64(item.UnitPrice) * item.Quantity)
		tax := int64(float64(amount) * item.TaxRate / 100)
		invoice.Items = append(invoice.Items, models.InvoiceItem{
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     item.TaxRate,
			Amount:      amount,
		})
		invoice.Subtotal += amount
		invoice.TaxTotal += tax
	}
	invoice.Total = invoice.Subtotal + invoice.TaxTotal

	return invoice
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	var req InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("❌ [InvoiceHandler] Invalid invoice request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invoice number, issue date and at least one item required"})
		return
	}

	invoice := req.toModel()
	if err := h.invoiceService.CreateInvoice(c.Request.Context(), user, invoice); err != nil {
		respondResourceError(c, user, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"invoice": invoice})
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	invoices, total, err := h.invoiceService.ListInvoices(user, limit, offset)
	if err != nil {
		h.logger.Error("❌ [InvoiceHandler] Failed to list invoices", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list invoices"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invoices": invoices,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice id"})
		return
	}

	invoice, err := h.invoiceService.GetInvoice(user, invoiceID)
	if err != nil {
		respondResourceError(c, user, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// Update handles PUT /invoices/:id
func (h *InvoiceHandler) Update(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice id"})
		return
	}

	var req InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("❌ [InvoiceHandler] Invalid invoice request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invoice number, issue date and at least one item required"})
		return
	}

	invoice := req.toModel()
	invoice.ID = invoiceID
	if err := h.invoiceService.UpdateInvoice(user, invoice); err != nil {
		respondResourceError(c, user, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// Delete handles DELETE /invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice id"})
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), user, invoiceID); err != nil {
		respondResourceError(c, user, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted"})
}

// Export handles POST /invoices/:id/export?format=pdf|drive|csv|xlsx|json
func (h *InvoiceHandler) Export(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice id"})
		return
	}

	format := config.ExportFormat(c.DefaultQuery("format", string(config.ExportPDF)))

	result, err := h.invoiceService.ExportInvoice(c.Request.Context(), user, invoiceID, format)
	if err != nil {
		respondResourceError(c, user, h.logger, err)
		return
	}

	// CSV/JSON payloads stream back directly; deferred formats return a
	// descriptor for the external renderer to pick up
	if result.Deferred {
		c.JSON(http.StatusAccepted, gin.H{"export": result})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

type ShareRequest struct {
	Recipient string `json:"recipient" binding:"required,email"`
}

// Share handles POST /invoices/:id/share
func (h *InvoiceHandler) Share(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice id"})
		return
	}

	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid recipient email required"})
		return
	}

	if err := h.invoiceService.ShareInvoice(c.Request.Context(), user, invoiceID, req.Recipient); err != nil {
		respondResourceError(c, user, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invoice shared"})
}
