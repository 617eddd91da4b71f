package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"optik-backend/internal/events"
	"optik-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockMovementInput struct {
	VariantID    uuid.UUID                  `json:"variantId" binding:"required"`
	MovementType models.StockMovementType   `json:"movementType" binding:"required"`
	Status       models.StockMovementStatus `json:"status"`
	Quantity     int                        `json:"quantity" binding:"required"`
	UnitPrice    *decimal.Decimal           `json:"unitPrice" binding:"required"`
	TotalPrice   *decimal.Decimal           `json:"totalPrice"`
	ReferenceNo  string                     `json:"referenceNo"`
	Notes        string                     `json:"notes"`
	MovementDate *time.Time                 `json:"movementDate"`
	OrderID      *uuid.UUID                 `json:"orderId"`
}

func (in StockMovementInput) validate() error {
	if in.VariantID == uuid.Nil {
		return invalid("variantId is required")
	}
	if !in.MovementType.Valid() {
		return invalid("Invalid movement type")
	}
	if in.Status != "" && !in.Status.Valid() {
		return invalid("Invalid movement status")
	}
	if in.Quantity == 0 {
		return invalid("Quantity cannot be zero")
	}
	if in.MovementType != models.MovementAdjustment && in.Quantity < 0 {
		return invalid("Quantity must be positive")
	}
	if in.UnitPrice == nil || in.UnitPrice.IsNegative() {
		return invalid("unitPrice must be zero or greater")
	}
	if in.TotalPrice != nil && in.TotalPrice.IsNegative() {
		return invalid("totalPrice must be zero or greater")
	}
	return nil
}

type VariantInput struct {
	Name  string           `json:"name" binding:"required"`
	SKU   string           `json:"sku" binding:"required"`
	Price *decimal.Decimal `json:"price" binding:"required"`
	Stock int              `json:"stock" binding:"min=0"`
}

type ProductInput struct {
	Name         string         `json:"name" binding:"required"`
	Description  string         `json:"description"`
	CategoryID   *uuid.UUID     `json:"categoryId"`
	CategoryName string         `json:"categoryName"`
	Variants     []VariantInput `json:"variants" binding:"required,min=1,dive"`
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("Product name is required")
	}
	if len(in.Variants) == 0 {
		return invalid("At least one variant is required")
	}
	for _, v := range in.Variants {
		if strings.TrimSpace(v.Name) == "" || strings.TrimSpace(v.SKU) == "" {
			return invalid("Variant name and sku are required")
		}
		if v.Price == nil || v.Price.IsNegative() {
			return invalid("Variant price must be zero or greater")
		}
		if v.Stock < 0 {
			return invalid("Variant stock cannot be negative")
		}
	}
	return nil
}

type StockService struct {
	db     *gorm.DB
	events events.Publisher
	log    *zap.SugaredLogger
}

func NewStockService(db *gorm.DB, publisher events.Publisher, log *zap.SugaredLogger) *StockService {
	return &StockService{db: db, events: publisher, log: log}
}

func (s *StockService) ListStockMovements(ctx context.Context) ([]models.StockMovement, error) {
	movements := []models.StockMovement{}
	err := s.db.WithContext(ctx).
		Preload("Variant").
		Order("movement_date desc").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// CreateStockMovement records the movement and, when it is completed, applies
// its signed quantity to the variant's stock.
func (s *StockService) CreateStockMovement(ctx context.Context, in StockMovementInput, userID uuid.UUID) (*models.StockMovement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var movement models.StockMovement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var variant models.ProductVariant
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&variant, "id = ?", in.VariantID).Error; err != nil {
			return translate(err, "Product variant not found")
		}

		if in.OrderID != nil {
			var count int64
			if err := tx.Model(&models.Order{}).Where("id = ?", *in.OrderID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return notFound("Order not found")
			}
		}

		movement = models.StockMovement{
			MovementType: in.MovementType,
			Status:       in.Status,
			Quantity:     in.Quantity,
			UnitPrice:    *in.UnitPrice,
			ReferenceNo:  in.ReferenceNo,
			Notes:        in.Notes,
			MovementDate: time.Now().UTC(),
			VariantID:    variant.ID,
			OrderID:      in.OrderID,
		}
		if movement.Status == "" {
			movement.Status = models.MovementCompleted
		}
		if in.TotalPrice != nil {
			movement.TotalPrice = *in.TotalPrice
		} else {
			qty := in.Quantity
			if qty < 0 {
				qty = -qty
			}
			movement.TotalPrice = in.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
		}
		if in.MovementDate != nil {
			movement.MovementDate = in.MovementDate.UTC()
		}
		if userID != uuid.Nil {
			movement.UserID = &userID
		}

		if movement.Status == models.MovementCompleted {
			newStock := variant.Stock + movement.StockDelta()
			if newStock < 0 {
				return invalid("Insufficient stock for " + variant.Name)
			}
			if err := tx.Model(&variant).Update("stock", newStock).Error; err != nil {
				return err
			}
			variant.Stock = newStock
		}

		if err := tx.Omit(clause.Associations).Create(&movement).Error; err != nil {
			return err
		}
		movement.Variant = &variant
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, s.log, events.StockMovementCreated, events.StockMovementEvent{
		MovementID:   movement.ID,
		VariantID:    movement.VariantID,
		MovementType: string(movement.MovementType),
		Status:       string(movement.Status),
		Quantity:     movement.Quantity,
		StockAfter:   movement.Variant.Stock,
		OccurredAt:   time.Now(),
	})
	return &movement, nil
}

func (s *StockService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.WithContext(ctx).
		Preload("Category").
		Preload("Variants").
		Order("name asc").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct writes a product with its variants. The category is looked up
// by id, or found or created by name.
func (s *StockService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	product := models.Product{
		Name:        in.Name,
		Description: in.Description,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := findCategory(tx, in.CategoryID, in.CategoryName)
		if err != nil {
			return err
		}
		if category != nil {
			product.CategoryID = &category.ID
			product.Category = category
		}

		if err := tx.Omit(clause.Associations).Create(&product).Error; err != nil {
			return err
		}

		variants := make([]models.ProductVariant, len(in.Variants))
		for i, v := range in.Variants {
			variants[i] = models.ProductVariant{
				ProductID: product.ID,
				Name:      v.Name,
				SKU:       v.SKU,
				Price:     *v.Price,
				Stock:     v.Stock,
			}
		}
		if err := tx.Create(&variants).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("A variant with this SKU already exists")
			}
			return err
		}
		product.Variants = variants
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func findCategory(tx *gorm.DB, id *uuid.UUID, name string) (*models.Category, error) {
	var category models.Category
	switch {
	case id != nil:
		if err := tx.First(&category, "id = ?", *id).Error; err != nil {
			return nil, translate(err, "Category not found")
		}
		return &category, nil
	case strings.TrimSpace(name) != "":
		name = strings.TrimSpace(name)
		err := tx.Where(models.Category{Slug: slugify(name)}).
			Attrs(models.Category{Name: name}).
			FirstOrCreate(&category).Error
		if err != nil {
			return nil, translate(err, "Category not found")
		}
		return &category, nil
	default:
		return nil, nil
	}
}

func slugify(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}
