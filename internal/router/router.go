// internal/router/router.go
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/catalog-backend/internal/config"
	"github.com/javajoker/catalog-backend/internal/database"
	"github.com/javajoker/catalog-backend/internal/handlers"
	"github.com/javajoker/catalog-backend/internal/i18n"
	"github.com/javajoker/catalog-backend/internal/middleware"
	"github.com/javajoker/catalog-backend/internal/services"
	"github.com/javajoker/catalog-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	tokens := utils.NewTokenManager(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.AccessTokenTTL())

	// Initialize services
	authService := services.NewAuthService(db, tokens)
	categoryService := services.NewCategoryService(db)
	productService := services.NewProductService(db)
	userService := services.NewUserService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	productHandler := handlers.NewProductHandler(productService)
	userHandler := handlers.NewUserHandler(userService)

	tokenLimiter := middleware.PerMinute(cfg.RateLimit.TokenPerMinute, cfg.RateLimit.TokenBurst)
	authRequired := middleware.AuthRequired(tokens)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware())

	r.NoRoute(func(c *gin.Context) {
		utils.NotFoundResponse(c, i18n.KeyRouteNotFound)
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			logrus.WithError(err).Warn("Health check database ping failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unreachable",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "ok",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		user := v1.Group("/user")
		{
			user.POST("", authHandler.Register)
			user.POST("/token", tokenLimiter.Middleware(), authHandler.IssueToken)
			user.GET("/:id", userHandler.GetUser)
			user.PUT("/:id", authRequired, userHandler.UpdateUser)
			user.DELETE("/:id", authRequired, userHandler.DeleteUser)
		}

		category := v1.Group("/category")
		{
			category.GET("/search", categoryHandler.SearchCategories)
			category.GET("/:id", categoryHandler.GetCategory)
			category.POST("", authRequired, categoryHandler.CreateCategory)
			category.PUT("/:id", authRequired, categoryHandler.UpdateCategory)
			category.DELETE("/:id", authRequired, categoryHandler.DeleteCategory)
		}

		product := v1.Group("/product")
		{
			product.GET("/search", productHandler.SearchProducts)
			product.GET("/:id", productHandler.GetProduct)
			product.POST("", authRequired, productHandler.CreateProduct)
			product.PUT("/:id", authRequired, productHandler.UpdateProduct)
			product.DELETE("/:id", authRequired, productHandler.DeleteProduct)
		}
	}

	return r
}
