package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderEvent struct {
	OrderID         uuid.UUID       `json:"orderId"`
	OrderNumber     string          `json:"orderNumber"`
	CustomerID      uuid.UUID       `json:"customerId"`
	UserID          uuid.UUID       `json:"userId"`
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	OccurredAt      time.Time       `json:"occurredAt"`
}

type PaymentEvent struct {
	PaymentID       uuid.UUID       `json:"paymentId"`
	OrderID         uuid.UUID       `json:"orderId"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"paymentMethod"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	OccurredAt      time.Time       `json:"occurredAt"`
}

type StockMovementEvent struct {
	MovementID   uuid.UUID `json:"movementId"`
	VariantID    uuid.UUID `json:"variantId"`
	MovementType string    `json:"movementType"`
	Status       string    `json:"status"`
	Quantity     int       `json:"quantity"`
	StockAfter   int       `json:"stockAfter"`
	OccurredAt   time.Time `json:"occurredAt"`
}
