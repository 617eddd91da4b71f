package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"optik-backend/internal/models"
	"optik-backend/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=6"`
	Role     models.Role `json:"role" binding:"omitempty,oneof=ADMIN USER"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ResetPasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

type AuthUser struct {
	ID       uuid.UUID   `json:"id"`
	Email    string      `json:"email"`
	FullName string      `json:"fullName"`
	Role     models.Role `json:"role"`
}

type LoginData struct {
	User AuthUser `json:"user"`
}

type LoginResponse struct {
	Success     bool      `json:"success"`
	AccessToken string    `json:"accessToken"`
	Data        LoginData `json:"data"`
	Message     string    `json:"message"`
}

type UserService struct {
	db     *gorm.DB
	tokens *utils.TokenManager
	log    *zap.SugaredLogger
}

func NewUserService(db *gorm.DB, tokens *utils.TokenManager, log *zap.SugaredLogger) *UserService {
	return &UserService{db: db, tokens: tokens, log: log}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*LoginResponse, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, invalid("Email is required")
	}
	if len(in.Password) < 6 {
		return nil, invalid("Password must be at least 6 characters")
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, invalid("Invalid role")
	}

	hashedPassword, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Email:        email,
		Name:         in.Name,
		PasswordHash: hashedPassword,
		Role:         role,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("User with this email already exists")
		}
		return nil, err
	}

	s.log.Infow("user registered", "user_id", user.ID, "role", user.Role)
	return s.loginResponse(user, "Registration successful")
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*LoginResponse, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.Where("email = ?", normalizeEmail(in.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unauthorized("Invalid email or password")
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(in.Password, user.PasswordHash) {
		return nil, unauthorized("Invalid email or password")
	}
	if !user.IsActive {
		return nil, unauthorized("Account is disabled")
	}

	now := time.Now().UTC()
	if err := db.Model(&user).Update("last_login", now).Error; err != nil {
		s.log.Warnw("failed to update last login", "user_id", user.ID, "error", err)
	}
	user.LastLogin = &now

	return s.loginResponse(user, "Login successful")
}

func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, translate(err, "User not found")
	}
	return &user, nil
}

// IsActive reports whether the user still exists and is enabled.
func (s *UserService) IsActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *UserService) ResetPassword(ctx context.Context, userID uuid.UUID, in ResetPasswordInput) error {
	if len(in.NewPassword) < 6 {
		return invalid("Password must be at least 6 characters")
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return translate(err, "User not found")
	}
	if !utils.CheckPasswordHash(in.CurrentPassword, user.PasswordHash) {
		return unauthorized("Incorrect current password")
	}

	hashedPassword, err := utils.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return db.Model(&user).Update("password_hash", hashedPassword).Error
}

func (s *UserService) loginResponse(user models.User, message string) (*LoginResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID.String(), user.Email, user.Name, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		Success:     true,
		AccessToken: token,
		Data: LoginData{User: AuthUser{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.Name,
			Role:     user.Role,
		}},
		Message: message,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type UpdateUserInput struct {
	Name     *string      `json:"name"`
	Role     *models.Role `json:"role" binding:"omitempty,oneof=ADMIN USER"`
	IsActive *bool        `json:"isActive"`
	Password *string      `json:"password" binding:"omitempty,min=6"`
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("created_at desc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser lets an administrator rename, re-role, disable or set a new
// password for an account.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*models.User, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Role != nil {
		if *in.Role != models.RoleAdmin && *in.Role != models.RoleUser {
			return nil, invalid("Invalid role")
		}
		updates["role"] = *in.Role
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.Password != nil {
		if len(*in.Password) < 6 {
			return nil, invalid("Password must be at least 6 characters")
		}
		hashedPassword, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = hashedPassword
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "User not found")
	}
	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "User not found")
	}
	s.log.Infow("user updated", "user_id", user.ID, "role", user.Role, "active", user.IsActive)
	return &user, nil
}
