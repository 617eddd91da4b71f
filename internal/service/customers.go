package service

import (
	"context"
	"errors"
	"strings"

	"optik-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RelativeInput struct {
	FullName         string `json:"fullName" binding:"required"`
	TCIdentityNumber string `json:"tcIdentityNumber" binding:"required,tckn"`
}

type CustomerInput struct {
	TCIdentityNumber string         `json:"tcIdentityNumber" binding:"required,tckn"`
	FullName         string         `json:"fullName" binding:"required"`
	PhoneNumber      string         `json:"phoneNumber"`
	Email            string         `json:"email" binding:"omitempty,email"`
	Address          string         `json:"address"`
	Relative         *RelativeInput `json:"relative"`
}

type UpdateCustomerInput struct {
	TCIdentityNumber *string `json:"tcIdentityNumber" binding:"omitempty,tckn"`
	FullName         *string `json:"fullName" binding:"omitempty,min=1"`
	PhoneNumber      *string `json:"phoneNumber"`
	Email            *string `json:"email" binding:"omitempty,email"`
	Address          *string `json:"address"`
	IsActive         *bool   `json:"isActive"`
}

// ValidTCIdentityNumber reports whether s is an 11 digit identity number.
func ValidTCIdentityNumber(s string) bool {
	if len(s) != 11 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (in CustomerInput) validate() error {
	if strings.TrimSpace(in.FullName) == "" {
		return invalid("Customer full name is required")
	}
	if !ValidTCIdentityNumber(in.TCIdentityNumber) {
		return invalid("TC identity number must be 11 digits")
	}
	if in.Relative != nil {
		if strings.TrimSpace(in.Relative.FullName) == "" {
			return invalid("Relative full name is required")
		}
		if !ValidTCIdentityNumber(in.Relative.TCIdentityNumber) {
			return invalid("Relative TC identity number must be 11 digits")
		}
	}
	return nil
}

type CustomerService struct {
	db *gorm.DB
}

func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{db: db}
}

func (s *CustomerService) Create(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var customer *models.Customer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		customer, err = createCustomer(tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *CustomerService) List(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	if err := s.db.WithContext(ctx).Preload("Relative").Order("created_at desc").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.WithContext(ctx).Preload("Relative").First(&customer, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "Customer not found")
	}
	return &customer, nil
}

func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, in UpdateCustomerInput) (*models.Customer, error) {
	updates := map[string]interface{}{}
	if in.FullName != nil {
		if strings.TrimSpace(*in.FullName) == "" {
			return nil, invalid("Customer full name is required")
		}
		updates["full_name"] = *in.FullName
	}
	if in.TCIdentityNumber != nil {
		if !ValidTCIdentityNumber(*in.TCIdentityNumber) {
			return nil, invalid("TC identity number must be 11 digits")
		}
		updates["tc_identity_number"] = *in.TCIdentityNumber
	}
	if in.PhoneNumber != nil {
		updates["phone_number"] = *in.PhoneNumber
	}
	if in.Email != nil {
		updates["email"] = *in.Email
	}
	if in.Address != nil {
		updates["address"] = *in.Address
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, "id = ?", id).Error; err != nil {
			return translate(err, "Customer not found")
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&customer).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("Customer with this TC identity number already exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the customer and its relative. Customers that still have
// orders are kept.
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, "id = ?", id).Error; err != nil {
			return translate(err, "Customer not found")
		}

		var orders int64
		if err := tx.Model(&models.Order{}).Where("customer_id = ?", id).Count(&orders).Error; err != nil {
			return err
		}
		if orders > 0 {
			return conflict("Customer has orders and cannot be deleted")
		}

		if err := tx.Select("Relative").Delete(&customer).Error; err != nil {
			return translate(err, "Customer not found")
		}
		return nil
	})
}

// resolveCustomer returns the id and full name of the customer an order is
// written for. An existing customerID takes precedence over inline data.
func resolveCustomer(tx *gorm.DB, customerID *uuid.UUID, data *CustomerInput) (uuid.UUID, string, error) {
	switch {
	case customerID != nil:
		var customer models.Customer
		if err := tx.Select("id", "full_name").First(&customer, "id = ?", *customerID).Error; err != nil {
			return uuid.Nil, "", translate(err, "Customer not found")
		}
		return customer.ID, customer.FullName, nil
	case data != nil:
		customer, err := createCustomer(tx, *data)
		if err != nil {
			return uuid.Nil, "", err
		}
		return customer.ID, customer.FullName, nil
	default:
		return uuid.Nil, "", invalid("customer or customerId required")
	}
}

func createCustomer(tx *gorm.DB, in CustomerInput) (*models.Customer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	customer := models.Customer{
		TCIdentityNumber: in.TCIdentityNumber,
		FullName:         in.FullName,
		PhoneNumber:      in.PhoneNumber,
		Email:            in.Email,
		Address:          in.Address,
		IsActive:         true,
	}
	if in.Relative != nil {
		customer.Relative = &models.Relative{
			FullName:         in.Relative.FullName,
			TCIdentityNumber: in.Relative.TCIdentityNumber,
		}
	}

	if err := tx.Create(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("Customer with this TC identity number already exists")
		}
		return nil, err
	}
	return &customer, nil
}
