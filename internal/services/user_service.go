// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/javajoker/catalog-backend/internal/models"
	"github.com/javajoker/catalog-backend/internal/utils"
)

type UserService struct {
	db *gorm.DB
}

type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,notblank,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,notblank"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*UserView, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &UserView{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

// UpdateUser changes the account of actorID. Accounts can only be changed by
// their owner.
func (s *UserService) UpdateUser(ctx context.Context, actorID, id uint, req *UpdateUserRequest) error {
	if req.Email != nil {
		trimmed := strings.TrimSpace(*req.Email)
		req.Email = &trimmed
	}
	if err := utils.ValidateStruct(req); err != nil {
		return validationFromStruct(err)
	}
	if req.Name == nil && req.Email == nil && req.Password == nil {
		return newValidationError("at least one of name, email or password is required")
	}

	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user.ID != actorID {
		return ErrForbidden
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Email != nil && *req.Email != user.Email {
		var count int64
		if err := db.Model(&models.User{}).Where("email = ? AND id <> ?", *req.Email, id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if count > 0 {
			return newConflict("user with this email already exists")
		}
		updates["email"] = *req.Email
	}
	if req.Password != nil {
		if err := user.SetPassword(*req.Password); err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		updates["password_hash"] = user.PasswordHash
	}

	if len(updates) == 0 {
		return nil
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		return translateWriteError(fmt.Errorf("failed to update user: %w", err), "user with this email already exists")
	}
	return nil
}

func (s *UserService) DeleteUser(ctx context.Context, actorID, id uint) error {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.Select("id").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user.ID != actorID {
		return ErrForbidden
	}

	if err := db.Delete(&models.User{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
