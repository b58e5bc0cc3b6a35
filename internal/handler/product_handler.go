package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/invomate/backend-go/internal/database/models"
	"github.com/invomate/backend-go/internal/database/service"
)

// ProductHandler handles product CRUD API requests
type ProductHandler struct {
	productService service.ProductService
	userService    service.UserService
	logger         *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService service.ProductService, userService service.UserService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		userService:    userService,
		logger:         logger,
	}
}

type ProductRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=255"`
	Description string  `json:"description" binding:"omitempty,max=1024"`
	UnitPrice   int64   `json:"unit_price" binding:"gte=0"`
	TaxRate     float64 `json:"tax_rate" binding:"gte=0,lte=100"`
	Unit        string  `json:"unit" binding:"omitempty,max=50"`
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("❌ [ProductHandler] Invalid product request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product name required"})
		return
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		TaxRate:     req.TaxRate,
		Unit:        req.Unit,
	}

	if err := h.productService.CreateProduct(c.Request.Context(), user, product); err != nil {
		respondResourceError(c, user, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	products, err := h.productService.ListProducts(user)
	if err != nil {
		h.logger.Error("❌ [ProductHandler] Failed to list products", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// Get handles GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	product, err := h.productService.GetProduct(user, uint(productID))
	if err != nil {
		respondResourceError(c, user, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// Update handles PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product name required"})
		return
	}

	product := &models.Product{
		ID:          uint(productID),
		Name:        req.Name,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		TaxRate:     req.TaxRate,
		Unit:        req.Unit,
	}

	if err := h.productService.UpdateProduct(user, product); err != nil {
		respondResourceError(c, user, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// Delete handles DELETE /products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), user, uint(productID)); err != nil {
		respondResourceError(c, user, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
