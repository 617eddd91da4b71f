package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	Base
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"size:120;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Products    []Product `json:"-"`
}

type Product struct {
	Base
	Name        string           `gorm:"size:150;not null" json:"name"`
	Description string           `gorm:"type:text" json:"description,omitempty"`
	CategoryID  *uuid.UUID       `gorm:"type:char(36);index" json:"categoryId"`
	Category    *Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

type ProductVariant struct {
	Base
	ProductID uuid.UUID       `gorm:"type:char(36);index;not null" json:"productId"`
	Name      string          `gorm:"size:150;not null" json:"name"`
	SKU       string          `gorm:"column:sku;size:64;uniqueIndex;not null" json:"sku"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock     int             `gorm:"not null;default:0" json:"stock"`
}

type StockMovementType string

const (
	MovementPurchase   StockMovementType = "PURCHASE"
	MovementSale       StockMovementType = "SALE"
	MovementReturn     StockMovementType = "RETURN"
	MovementAdjustment StockMovementType = "ADJUSTMENT"
)

func (t StockMovementType) Valid() bool {
	switch t {
	case MovementPurchase, MovementSale, MovementReturn, MovementAdjustment:
		return true
	}
	return false
}

type StockMovementStatus string

const (
	MovementPending   StockMovementStatus = "PENDING"
	MovementCompleted StockMovementStatus = "COMPLETED"
	MovementCancelled StockMovementStatus = "CANCELLED"
)

func (s StockMovementStatus) Valid() bool {
	return s == MovementPending || s == MovementCompleted || s == MovementCancelled
}

type StockMovement struct {
	Base
	MovementType StockMovementType   `gorm:"size:20;not null" json:"movementType"`
	Status       StockMovementStatus `gorm:"size:20;not null" json:"status"`
	Quantity     int                 `gorm:"not null" json:"quantity"`
	UnitPrice    decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"unitPrice"`
	TotalPrice   decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"totalPrice"`
	ReferenceNo  string              `gorm:"size:64" json:"referenceNo,omitempty"`
	Notes        string              `gorm:"type:text" json:"notes,omitempty"`
	MovementDate time.Time           `gorm:"index;not null" json:"movementDate"`
	VariantID    uuid.UUID           `gorm:"type:char(36);index;not null" json:"variantId"`
	Variant      *ProductVariant     `gorm:"foreignKey:VariantID" json:"variant,omitempty"`
	UserID       *uuid.UUID          `gorm:"type:char(36);index" json:"userId"`
	OrderID      *uuid.UUID          `gorm:"type:char(36);index" json:"orderId"`
}

// StockDelta is the signed change a completed movement applies to the
// variant's stock. Adjustments carry their own sign.
func (m StockMovement) StockDelta() int {
	q := m.Quantity
	if q < 0 {
		q = -q
	}
	switch m.MovementType {
	case MovementSale:
		return -q
	case MovementAdjustment:
		return m.Quantity
	default:
		return q
	}
}
