package database

import (
	"errors"
	"fmt"

	"optik-backend/config"
	"optik-backend/internal/models"
	"optik-backend/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedAdmin creates the configured admin account when it does not exist yet.
// It is a no-op when ADMIN_EMAIL or ADMIN_PASSWORD is not set.
func SeedAdmin(db *gorm.DB, defaults config.DefaultsConfig, log *zap.SugaredLogger) error {
	if defaults.AdminEmail == "" || defaults.AdminPassword == "" {
		log.Info("admin credentials not configured, skipping admin seed")
		return nil
	}

	var admin models.User
	err := db.Where("email = ?", defaults.AdminEmail).First(&admin).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up admin user: %w", err)
	}

	hashedPassword, err := utils.HashPassword(defaults.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin = models.User{
		Email:        defaults.AdminEmail,
		Name:         defaults.AdminName,
		PasswordHash: hashedPassword,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	log.Infow("admin user seeded", "email", admin.Email)
	return nil
}
