// internal/services/category_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/javajoker/catalog-backend/internal/database"
	"github.com/javajoker/catalog-backend/internal/models"
	"github.com/javajoker/catalog-backend/internal/utils"
)

var CategorySearchFields = []string{"id", "name", "slug", "use_in_menu"}

type CategoryService struct {
	db *gorm.DB
}

type CategorySearchParams struct {
	utils.PaginationParams
	Fields    []string
	UseInMenu *bool
}

type CategoryView struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	UseInMenu bool   `json:"use_in_menu"`
}

type CreateCategoryRequest struct {
	Name      string `json:"name" validate:"required,notblank,max=255"`
	Slug      string `json:"slug" validate:"required,notblank,max=255"`
	UseInMenu bool   `json:"use_in_menu"`
}

type UpdateCategoryRequest struct {
	Name      *string `json:"name" validate:"omitempty,notblank,max=255"`
	Slug      *string `json:"slug" validate:"omitempty,notblank,max=255"`
	UseInMenu *bool   `json:"use_in_menu"`
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

func ParseCategorySearchParams(query url.Values) (*CategorySearchParams, error) {
	pagination, err := utils.GetPaginationParams(query)
	if err != nil {
		return nil, newValidationError("%s", err.Error())
	}

	params := &CategorySearchParams{
		PaginationParams: pagination,
		Fields:           utils.SelectFields(query.Get("fields"), CategorySearchFields),
	}

	if raw := strings.TrimSpace(query.Get("use_in_menu")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, newValidationError("use_in_menu must be a boolean")
		}
		params.UseInMenu = &v
	}

	return params, nil
}

func (s *CategoryService) SearchCategories(ctx context.Context, params *CategorySearchParams) (*utils.PaginationResult, error) {
	query := s.db.WithContext(ctx).Model(&models.Category{})
	if params.UseInMenu != nil {
		query = query.Where("use_in_menu = ?", *params.UseInMenu)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	var categories []models.Category
	page := query.Select(params.Fields).Order("name ASC, id ASC")
	if err := utils.ApplyPagination(page, params.PaginationParams).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	data := make([]map[string]interface{}, 0, len(categories))
	for _, c := range categories {
		data = append(data, categorySummary(c, params.Fields))
	}

	result := utils.CreatePaginationResult(data, total, params.PaginationParams)
	return &result, nil
}

func categorySummary(c models.Category, fields []string) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for _, field := range fields {
		switch field {
		case "id":
			out["id"] = c.ID
		case "name":
			out["name"] = c.Name
		case "slug":
			out["slug"] = c.Slug
		case "use_in_menu":
			out["use_in_menu"] = c.UseInMenu
		}
	}
	return out
}

func newCategoryView(c models.Category) *CategoryView {
	return &CategoryView{ID: c.ID, Name: c.Name, Slug: c.Slug, UseInMenu: c.UseInMenu}
}

func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*CategoryView, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	return newCategoryView(category), nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, req *CreateCategoryRequest) (*CategoryView, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFromStruct(err)
	}

	category := models.Category{Name: req.Name, Slug: req.Slug, UseInMenu: req.UseInMenu}
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := ensureSlugAvailable(tx, &models.Category{}, req.Slug, 0); err != nil {
			return err
		}
		if err := tx.Create(&category).Error; err != nil {
			return translateWriteError(fmt.Errorf("failed to create category: %w", err), "slug is already in use")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return newCategoryView(category), nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, req *UpdateCategoryRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return validationFromStruct(err)
	}
	if req.Name == nil && req.Slug == nil && req.UseInMenu == nil {
		return newValidationError("at least one of name, slug or use_in_menu is required")
	}

	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("failed to load category: %w", err)
		}

		updates := make(map[string]interface{})
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Slug != nil {
			if err := ensureSlugAvailable(tx, &models.Category{}, *req.Slug, category.ID); err != nil {
				return err
			}
			updates["slug"] = *req.Slug
		}
		if req.UseInMenu != nil {
			updates["use_in_menu"] = *req.UseInMenu
		}

		if err := tx.Model(&category).Updates(updates).Error; err != nil {
			return translateWriteError(fmt.Errorf("failed to update category: %w", err), "slug is already in use")
		}
		return nil
	})
}

// DeleteCategory removes the category and its product links.
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.Select("id").First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("failed to load category: %w", err)
		}

		if err := tx.Where("category_id = ?", id).Delete(&models.ProductCategory{}).Error; err != nil {
			return fmt.Errorf("failed to unlink products: %w", err)
		}
		if err := tx.Delete(&models.Category{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return nil
	})
}
