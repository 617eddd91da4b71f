package service

import (
	"context"
	"time"

	"optik-backend/internal/events"
	"optik-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentInput struct {
	OrderID       uuid.UUID            `json:"orderId" binding:"required"`
	Amount        *decimal.Decimal     `json:"amount" binding:"required"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod" binding:"required"`
	Notes         string               `json:"notes"`
	PaymentDate   *time.Time           `json:"paymentDate"`
}

func (in PaymentInput) validate() error {
	if in.OrderID == uuid.Nil {
		return invalid("orderId is required")
	}
	if in.Amount == nil || !in.Amount.IsPositive() {
		return invalid("Payment amount must be greater than zero")
	}
	if !in.PaymentMethod.Valid() {
		return invalid("Invalid payment method")
	}
	return nil
}

type PaymentService struct {
	db     *gorm.DB
	events events.Publisher
	log    *zap.SugaredLogger
}

func NewPaymentService(db *gorm.DB, publisher events.Publisher, log *zap.SugaredLogger) *PaymentService {
	return &PaymentService{db: db, events: publisher, log: log}
}

// RecordPayment appends a payment and recomputes the order's remaining
// balance. The order row stays locked until commit so concurrent payments on
// the same order are applied one after another.
func (s *PaymentService) RecordPayment(ctx context.Context, in PaymentInput) (*models.Payment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var (
		payment   models.Payment
		remaining decimal.Decimal
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", in.OrderID).Error; err != nil {
			return translate(err, "Order not found")
		}

		paid, err := paidTotal(tx, order.ID)
		if err != nil {
			return err
		}

		payment = models.Payment{
			OrderID:       order.ID,
			Amount:        *in.Amount,
			PaymentMethod: in.PaymentMethod,
			Notes:         in.Notes,
			PaymentDate:   time.Now().UTC(),
		}
		if in.PaymentDate != nil {
			payment.PaymentDate = in.PaymentDate.UTC()
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		remaining = order.TotalAmount.Sub(paid.Add(payment.Amount))
		return tx.Model(&order).Update("remaining_amount", remaining).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("payment recorded",
		"order_id", payment.OrderID,
		"amount", payment.Amount.String(),
		"remaining", remaining.String(),
	)
	publish(ctx, s.events, s.log, events.PaymentRecorded, events.PaymentEvent{
		PaymentID:       payment.ID,
		OrderID:         payment.OrderID,
		Amount:          payment.Amount,
		PaymentMethod:   string(payment.PaymentMethod),
		RemainingAmount: remaining,
		OccurredAt:      time.Now(),
	})
	return &payment, nil
}

// ListPaymentsForOrder returns the order's payments newest first. An unknown
// order yields an empty list.
func (s *PaymentService) ListPaymentsForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	payments := []models.Payment{}
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("payment_date desc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
