package handler

import (
	"net/http"

	"optik-backend/internal/middleware"
	"optik-backend/internal/models"
	"optik-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders *service.OrderService
	log    *zap.SugaredLogger
}

func NewOrderHandler(orders *service.OrderService, log *zap.SugaredLogger) *OrderHandler {
	return &OrderHandler{orders: orders, log: log}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), req, middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to create order")
		return
	}
	c.JSON(http.StatusCreated, order)
}

// ListOrders accepts optional status and customerId query filters.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	filter := service.OrderFilter{Status: models.OrderStatus(c.Query("status"))}
	if raw := c.Query("customerId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customerId"})
			return
		}
		filter.CustomerID = &id
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch orders")
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch order")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.UpdateOrder(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.log, err, "Failed to update order")
		return
	}
	c.JSON(http.StatusOK, order)
}
