package handler

import (
	"net/http"

	"optik-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	payments *service.PaymentService
	log      *zap.SugaredLogger
}

func NewPaymentHandler(payments *service.PaymentService, log *zap.SugaredLogger) *PaymentHandler {
	return &PaymentHandler{payments: payments, log: log}
}

func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var req service.PaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := h.payments.RecordPayment(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err, "Failed to record payment")
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *PaymentHandler) ListPaymentsForOrder(c *gin.Context) {
	orderID, ok := parseID(c, "orderId")
	if !ok {
		return
	}

	payments, err := h.payments.ListPaymentsForOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch payments")
		return
	}
	c.JSON(http.StatusOK, payments)
}
