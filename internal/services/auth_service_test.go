// internal/services/auth_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/catalog-backend/internal/models"
	"github.com/javajoker/catalog-backend/internal/utils"
)

func TestAuthService(t *testing.T) {
	db := newTestDB(t)
	tokens := utils.NewTokenManager("test-secret", "catalog-test", time.Hour)
	svc := NewAuthService(db, tokens)
	ctx := context.Background()

	user, err := svc.Register(ctx, &RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.NotZero(t, user.ID)

	t.Run("duplicate email conflicts and keeps one row", func(t *testing.T) {
		_, err := svc.Register(ctx, &RegisterRequest{Name: "Ana 2", Email: "ana@example.com", Password: "x"})
		assert.ErrorIs(t, err, ErrConflict)

		var count int64
		require.NoError(t, db.Model(&models.User{}).Where("email = ?", "ana@example.com").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := svc.Register(ctx, &RegisterRequest{Name: "Bob", Email: "not-an-email", Password: "x"})
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("password is stored hashed", func(t *testing.T) {
		var stored models.User
		require.NoError(t, db.First(&stored, user.ID).Error)
		assert.NotEqual(t, "s3cret", stored.PasswordHash)
		assert.NoError(t, stored.CheckPassword("s3cret"))
	})

	t.Run("token for valid credentials", func(t *testing.T) {
		resp, err := svc.IssueToken(ctx, &TokenRequest{Email: "ana@example.com", Password: "s3cret"})
		require.NoError(t, err)

		claims, err := tokens.ValidateJWT(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, "ana@example.com", claims.Email)
	})

	t.Run("bad credentials", func(t *testing.T) {
		_, err := svc.IssueToken(ctx, &TokenRequest{Email: "ana@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = svc.IssueToken(ctx, &TokenRequest{Email: "nobody@example.com", Password: "s3cret"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
