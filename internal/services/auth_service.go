// internal/services/auth_service.go
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

type AuthService struct {
	db     *gorm.DB
	tokens *utils.TokenManager
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,notblank"`
}

type TokenRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

func NewAuthService(db *gorm.DB, tokens *utils.TokenManager) *AuthService {
	return &AuthService{
		db:     db,
		tokens: tokens,
	}
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*UserView, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFromStruct(err)
	}

	db := s.db.WithContext(ctx)

	// Check if user already exists
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, newConflict("user with this email already exists")
	}

	user := models.User{Name: req.Name, Email: req.Email}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := db.Create(&user).Error; err != nil {
		return nil, translateWriteError(fmt.Errorf("failed to create user: %w", err), "user with this email already exists")
	}

	return &UserView{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

// IssueToken exchanges valid credentials for a signed access token. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *AuthService) IssueToken(ctx context.Context, req *TokenRequest) (*TokenResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFromStruct(err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &TokenResponse{Token: token}, nil
}
