package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/invomate/backend-go/internal/database/models"
	"github.com/invomate/backend-go/internal/database/service"
)

// ClientHandler handles client CRUD API requests
type ClientHandler struct {
	clientService service.ClientService
	userService   service.UserService
	logger        *slog.Logger
}

// NewClientHandler creates a new client handler
func NewClientHandler(clientService service.ClientService, userService service.UserService, logger *slog.Logger) *ClientHandler {
	return &ClientHandler{
		clientService: clientService,
		userService:   userService,
		logger:        logger,
	}
}

type ClientRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=255"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone" binding:"omitempty,max=50"`
	Address string `json:"address" binding:"omitempty,max=1024"`
	GSTIN   string `json:"gstin" binding:"omitempty,max=20"`
}

// Create handles POST /clients
func (h *ClientHandler) Create(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("❌ [ClientHandler] Invalid client request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Client name required"})
		return
	}

	client := &models.Client{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		GSTIN:   req.GSTIN,
	}

	if err := h.clientService.CreateClient(c.Request.Context(), user, client); err != nil {
		respondResourceError(c, user, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"client": client})
}

// List handles GET /clients
func (h *ClientHandler) List(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	clients, err := h.clientService.ListClients(user)
	if err != nil {
		h.logger.Error("❌ [ClientHandler] Failed to list clients", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list clients"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

// Get handles GET /clients/:id
func (h *ClientHandler) Get(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	clientID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client id"})
		return
	}

	client, err := h.clientService.GetClient(user, uint(clientID))
	if err != nil {
		respondResourceError(c, user, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": client})
}

// Update handles PUT /clients/:id
func (h *ClientHandler) Update(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	clientID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client id"})
		return
	}

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Client name required"})
		return
	}

	client := &models.Client{
		ID:      uint(clientID),
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		GSTIN:   req.GSTIN,
	}

	if err := h.clientService.UpdateClient(user, client); err != nil {
		respondResourceError(c, user, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": client})
}

// Delete handles DELETE /clients/:id
func (h *ClientHandler) Delete(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	clientID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client id"})
		return
	}

	if err := h.clientService.DeleteClient(c.Request.Context(), user, uint(clientID)); err != nil {
		respondResourceError(c, user, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Client deleted"})
}
