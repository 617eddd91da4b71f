package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderReady      OrderStatus = "READY"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

type PrescriptionType string

const (
	PrescriptionERecipe PrescriptionType = "E_RECIPE"
	PrescriptionManual  PrescriptionType = "MANUAL"
)

type EyeSide string

const (
	EyeLeft  EyeSide = "LEFT"
	EyeRight EyeSide = "RIGHT"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderReady, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

func (t PrescriptionType) Valid() bool {
	return t == PrescriptionERecipe || t == PrescriptionManual
}

func (e EyeSide) Valid() bool {
	return e == EyeLeft || e == EyeRight
}

// Order is the aggregate root of a sale. CustomerFullName is a snapshot taken
// when the order is written and is not kept in sync with the customer row.
type Order struct {
	Base
	OrderNumber      string           `gorm:"size:50;uniqueIndex;not null" json:"orderNumber"`
	OrderDate        time.Time        `gorm:"index;not null" json:"orderDate"`
	DeliveryDate     *time.Time       `json:"deliveryDate"`
	TotalAmount      decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	SGKAmount        decimal.Decimal  `gorm:"column:sgk_amount;type:decimal(12,2);not null;default:0" json:"sgkAmount"`
	RemainingAmount  decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"remainingAmount"`
	Status           OrderStatus      `gorm:"size:20;not null;default:'PENDING'" json:"status"`
	PrescriptionType PrescriptionType `gorm:"size:20" json:"prescriptionType,omitempty"`
	Notes            string           `gorm:"type:text" json:"notes,omitempty"`
	CustomerFullName string           `gorm:"size:150;not null" json:"customerFullName"`
	CustomerID       uuid.UUID        `gorm:"type:char(36);index;not null" json:"customerId"`
	Customer         *Customer        `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	UserID           uuid.UUID        `gorm:"type:char(36);index;not null" json:"userId"`
	User             *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Frames           []Frame          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"frames,omitempty"`
	Prescriptions    []Prescription   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"prescriptions,omitempty"`
	Payments         []Payment        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
}

type Frame struct {
	Base
	OrderID   uuid.UUID `gorm:"type:char(36);index;not null" json:"orderId"`
	Brand     string    `gorm:"size:100" json:"brand,omitempty"`
	Model     string    `gorm:"size:100" json:"model,omitempty"`
	Color     string    `gorm:"size:50" json:"color,omitempty"`
	Type      string    `gorm:"size:50" json:"type,omitempty"`
	SortOrder int       `gorm:"not null;default:0" json:"sortOrder"`
}

// Prescription stores the distance and near measurements of one eye as flat
// columns.
type Prescription struct {
	Base
	OrderID      uuid.UUID `gorm:"type:char(36);index;not null" json:"orderId"`
	EyeSide      EyeSide   `gorm:"size:10;not null" json:"eyeSide"`
	DistanceSign *string   `gorm:"size:1" json:"distanceSign"`
	DistanceSph  *float64  `json:"distanceSph"`
	DistanceCyl  *float64  `json:"distanceCyl"`
	DistanceAx   *float64  `json:"distanceAx"`
	NearSign     *string   `gorm:"size:1" json:"nearSign"`
	NearSph      *float64  `json:"nearSph"`
	NearCyl      *float64  `json:"nearCyl"`
	NearAx       *float64  `json:"nearAx"`
	Addition     *float64  `json:"addition"`
	PD           *float64  `gorm:"column:pd" json:"pd"`
	Height       *float64  `json:"height"`
	Diameter     *float64  `json:"diameter"`
	SortOrder    int       `gorm:"not null;default:0" json:"sortOrder"`
	Lenses       []Lens    `gorm:"foreignKey:PrescriptionID;constraint:OnDelete:CASCADE" json:"lenses,omitempty"`
}

type Lens struct {
	Base
	PrescriptionID uuid.UUID `gorm:"type:char(36);index;not null" json:"prescriptionId"`
	LensType       string    `gorm:"size:50" json:"lensType,omitempty"`
	Material       string    `gorm:"size:50" json:"material,omitempty"`
	Coating        string    `gorm:"size:50" json:"coating,omitempty"`
	LensIndex      string    `gorm:"size:10" json:"lensIndex,omitempty"`
	SortOrder      int       `gorm:"not null;default:0" json:"sortOrder"`
}
