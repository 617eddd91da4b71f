package models

import "github.com/google/uuid"

type Customer struct {
	Base
	TCIdentityNumber string    `gorm:"size:11;uniqueIndex;not null" json:"tcIdentityNumber"`
	FullName         string    `gorm:"size:150;not null" json:"fullName"`
	PhoneNumber      string    `gorm:"size:20" json:"phoneNumber,omitempty"`
	Email            string    `gorm:"size:255" json:"email,omitempty"`
	Address          string    `gorm:"type:text" json:"address,omitempty"`
	IsActive         bool      `gorm:"default:true" json:"isActive"`
	Relative         *Relative `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"relative,omitempty"`
}

// Relative is owned by exactly one customer and only created together with it.
type Relative struct {
	Base
	CustomerID       uuid.UUID `gorm:"type:char(36);uniqueIndex;not null" json:"customerId"`
	FullName         string    `gorm:"size:150;not null" json:"fullName"`
	TCIdentityNumber string    `gorm:"size:11;not null" json:"tcIdentityNumber"`
}
