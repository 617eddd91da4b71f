package handler

import (
	"net/http"

	"optik-backend/internal/middleware"
	"optik-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	stock *service.StockService
	log   *zap.SugaredLogger
}

func NewInventoryHandler(stock *service.StockService, log *zap.SugaredLogger) *InventoryHandler {
	return &InventoryHandler{stock: stock, log: log}
}

func (h *InventoryHandler) ListProducts(c *gin.Context) {
	products, err := h.stock.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch products")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req service.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.stock.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err, "Failed to create product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *InventoryHandler) ListStockMovements(c *gin.Context) {
	movements, err := h.stock.ListStockMovements(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch stock movements")
		return
	}
	c.JSON(http.StatusOK, movements)
}

func (h *InventoryHandler) CreateStockMovement(c *gin.Context) {
	var req service.StockMovementInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	movement, err := h.stock.CreateStockMovement(c.Request.Context(), req, middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to record stock movement")
		return
	}
	c.JSON(http.StatusCreated, movement)
}
