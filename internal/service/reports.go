package service

import (
	"context"
	"time"

	"optik-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatusCount struct {
	Status models.OrderStatus `json:"status"`
	Count  int64              `json:"count"`
}

// SalesSummary aggregates orders taken in a date range. Cancelled orders are
// counted by status but excluded from the money totals.
type SalesSummary struct {
	From        *time.Time      `json:"from,omitempty"`
	To          *time.Time      `json:"to,omitempty"`
	OrderCount  int64           `json:"orderCount"`
	TotalSales  decimal.Decimal `json:"totalSales"`
	SGKTotal    decimal.Decimal `json:"sgkTotal"`
	Collected   decimal.Decimal `json:"collected"`
	Outstanding decimal.Decimal `json:"outstanding"`
	ByStatus    []StatusCount   `json:"byStatus"`
}

// SalesSummary reports on orders whose order date falls in [from, to]. Either
// bound may be nil.
func (s *OrderService) SalesSummary(ctx context.Context, from, to *time.Time) (*SalesSummary, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, invalid("end date must not be before start date")
	}
	from, to = utcTime(from), utcTime(to)
	db := s.db.WithContext(ctx)

	inRange := func() *gorm.DB {
		q := db.Model(&models.Order{})
		if from != nil {
			q = q.Where("order_date >= ?", *from)
		}
		if to != nil {
			q = q.Where("order_date <= ?", *to)
		}
		return q
	}

	summary := &SalesSummary{From: from, To: to, ByStatus: []StatusCount{}}
	if err := inRange().Select("status, count(*) as count").Group("status").Order("status").Scan(&summary.ByStatus).Error; err != nil {
		return nil, err
	}
	for _, sc := range summary.ByStatus {
		summary.OrderCount += sc.Count
	}

	var billable []models.Order
	err := inRange().
		Select("id", "total_amount", "sgk_amount").
		Where("status <> ?", models.OrderCancelled).
		Find(&billable).Error
	if err != nil {
		return nil, err
	}
	summary.TotalSales = decimal.Zero
	summary.SGKTotal = decimal.Zero
	summary.Collected = decimal.Zero
	if len(billable) > 0 {
		ids := make([]interface{}, len(billable))
		for i, o := range billable {
			summary.TotalSales = summary.TotalSales.Add(o.TotalAmount)
			summary.SGKTotal = summary.SGKTotal.Add(o.SGKAmount)
			ids[i] = o.ID
		}

		var amounts []decimal.Decimal
		if err := db.Model(&models.Payment{}).Where("order_id IN ?", ids).Pluck("amount", &amounts).Error; err != nil {
			return nil, err
		}
		for _, a := range amounts {
			summary.Collected = summary.Collected.Add(a)
		}
	}
	summary.Outstanding = summary.TotalSales.Sub(summary.Collected)
	return summary, nil
}
