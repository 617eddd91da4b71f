package handler

import (
	"net/http"
	"time"

	"optik-backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportHandler struct {
	orders *service.OrderService
	log    *zap.SugaredLogger
}

func NewReportHandler(orders *service.OrderService, log *zap.SugaredLogger) *ReportHandler {
	return &ReportHandler{orders: orders, log: log}
}

// GetSalesReport takes optional start_date and end_date (YYYY-MM-DD). The end
// date is inclusive.
func (h *ReportHandler) GetSalesReport(c *gin.Context) {
	var from, to *time.Time
	if s := c.Query("start_date"); s != "" {
		start, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
			return
		}
		from = &start
	}
	if s := c.Query("end_date"); s != "" {
		end, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
			return
		}
		// Set end date to end of day
		end = end.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}

	summary, err := h.orders.SalesSummary(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, h.log, err, "Failed to fetch sales report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
