// internal/services/product_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/catalog-backend/internal/database"
	"github.com/javajoker/catalog-backend/internal/models"
	"github.com/javajoker/catalog-backend/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

// FlexStrings accepts a JSON array of strings, numbers or booleans and keeps
// each element as a string.
type FlexStrings []string

func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("values must be an array: %w", err)
	}

	out := make(FlexStrings, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		switch {
		case len(item) == 0:
			continue
		case item[0] == '"':
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return err
			}
			out = append(out, s)
		case item[0] == 't' || item[0] == 'f' || item[0] == '-' || (item[0] >= '0' && item[0] <= '9'):
			out = append(out, string(item))
		default:
			return fmt.Errorf("unsupported option value %s", item)
		}
	}
	*f = out
	return nil
}

type ImageInput struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type OptionInput struct {
	Title  string      `json:"title"`
	Shape  string      `json:"shape"`
	Radius *int        `json:"radius"`
	Type   string      `json:"type"`
	Values FlexStrings `json:"values"`
}

type CreateProductRequest struct {
	Enabled           *bool         `json:"enabled"`
	Name              string        `json:"name" validate:"required,notblank,max=255"`
	Slug              string        `json:"slug" validate:"required,notblank,max=255"`
	UseInMenu         *bool         `json:"use_in_menu"`
	Stock             *int          `json:"stock" validate:"omitempty,min=0"`
	Description       string        `json:"description"`
	Price             *float64      `json:"price" validate:"required,min=0"`
	PriceWithDiscount *float64      `json:"price_with_discount" validate:"omitempty,min=0"`
	Images            []ImageInput  `json:"images"`
	Options           []OptionInput `json:"options"`
	CategoryIDs       []uint        `json:"category_ids"`
}

type ImageUpdate struct {
	ID      *uint   `json:"id"`
	Deleted bool    `json:"deleted"`
	Type    *string `json:"type"`
	Content *string `json:"content"`
}

type OptionUpdate struct {
	ID      *uint        `json:"id"`
	Deleted bool         `json:"deleted"`
	Title   *string      `json:"title"`
	Shape   *string      `json:"shape"`
	Radius  *int         `json:"radius"`
	Type    *string      `json:"type"`
	Values  *FlexStrings `json:"values"`
}

// UpdateProductRequest is a partial update: nil fields are left untouched.
type UpdateProductRequest struct {
	Enabled           *bool          `json:"enabled"`
	Name              *string        `json:"name" validate:"omitempty,notblank,max=255"`
	Slug              *string        `json:"slug" validate:"omitempty,notblank,max=255"`
	UseInMenu         *bool          `json:"use_in_menu"`
	Stock             *int           `json:"stock" validate:"omitempty,min=0"`
	Description       *string        `json:"description"`
	Price             *float64       `json:"price" validate:"omitempty,min=0"`
	PriceWithDiscount *float64       `json:"price_with_discount" validate:"omitempty,min=0"`
	Images            []ImageUpdate  `json:"images"`
	Options           []OptionUpdate `json:"options"`
	CategoryIDs       *[]uint        `json:"category_ids"`
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

// CreateProduct writes the product with its images, options and category
// links in one transaction and returns the stored aggregate.
func (s *ProductService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*ProductDetail, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFromStruct(err)
	}

	var productID uint
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := ensureSlugAvailable(tx, &models.Product{}, req.Slug, 0); err != nil {
			return err
		}
		for i := range req.Images {
			if err := validateNewImage(i, req.Images[i].Type, req.Images[i].Content); err != nil {
				return err
			}
		}
		for i := range req.Options {
			if err := validateNewOption(i, &req.Options[i]); err != nil {
				return err
			}
		}
		categoryIDs, err := ensureCategoriesExist(tx, req.CategoryIDs)
		if err != nil {
			return err
		}

		product := models.Product{
			Enabled:           true,
			Name:              req.Name,
			Slug:              req.Slug,
			Description:       req.Description,
			Price:             *req.Price,
			PriceWithDiscount: req.PriceWithDiscount,
		}
		if req.Enabled != nil {
			product.Enabled = *req.Enabled
		}
		if req.UseInMenu != nil {
			product.UseInMenu = *req.UseInMenu
		}
		if req.Stock != nil {
			product.Stock = *req.Stock
		}

		if err := tx.Omit(clause.Associations).Create(&product).Error; err != nil {
			return translateWriteError(fmt.Errorf("failed to create product: %w", err), "slug is already in use")
		}

		for _, img := range req.Images {
			if err := createImage(tx, product.ID, img.Type, img.Content); err != nil {
				return err
			}
		}
		for i := range req.Options {
			if err := createOption(tx, product.ID, &req.Options[i]); err != nil {
				return err
			}
		}
		if err := replaceCategories(tx, product.ID, categoryIDs); err != nil {
			return err
		}

		productID = product.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetProduct(ctx, productID)
}

// UpdateProduct applies a partial update. Any failure leaves the stored
// aggregate exactly as it was.
func (s *ProductService) UpdateProduct(ctx context.Context, id uint, req *UpdateProductRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return validationFromStruct(err)
	}

	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to load product: %w", err)
		}

		updates := make(map[string]interface{})
		if req.Enabled != nil {
			updates["enabled"] = *req.Enabled
		}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Slug != nil {
			if err := ensureSlugAvailable(tx, &models.Product{}, *req.Slug, product.ID); err != nil {
				return err
			}
			updates["slug"] = *req.Slug
		}
		if req.UseInMenu != nil {
			updates["use_in_menu"] = *req.UseInMenu
		}
		if req.Stock != nil {
			updates["stock"] = *req.Stock
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.Price != nil {
			updates["price"] = *req.Price
		}
		if req.PriceWithDiscount != nil {
			updates["price_with_discount"] = *req.PriceWithDiscount
		}

		if len(updates) > 0 {
			if err := tx.Model(&product).Updates(updates).Error; err != nil {
				return translateWriteError(fmt.Errorf("failed to update product: %w", err), "slug is already in use")
			}
		}

		for i := range req.Images {
			if err := reconcileImage(tx, product.ID, i, &req.Images[i]); err != nil {
				return err
			}
		}
		for i := range req.Options {
			if err := reconcileOption(tx, product.ID, i, &req.Options[i]); err != nil {
				return err
			}
		}

		if req.CategoryIDs != nil {
			categoryIDs, err := ensureCategoriesExist(tx, *req.CategoryIDs)
			if err != nil {
				return err
			}
			if err := replaceCategories(tx, product.ID, categoryIDs); err != nil {
				return err
			}
		}

		return nil
	})
}

// DeleteProduct removes the product and everything it owns.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Select("id").First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to load product: %w", err)
		}

		optionIDs := tx.Model(&models.ProductOption{}).Select("id").Where("product_id = ?", id)
		steps := []struct {
			what string
			run  func() error
		}{
			{"option values", func() error {
				return tx.Where("option_id IN (?)", optionIDs).Delete(&models.ProductOptionValue{}).Error
			}},
			{"options", func() error { return tx.Where("product_id = ?", id).Delete(&models.ProductOption{}).Error }},
			{"images", func() error { return tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error }},
			{"category links", func() error { return tx.Where("product_id = ?", id).Delete(&models.ProductCategory{}).Error }},
			{"product", func() error { return tx.Delete(&models.Product{}, id).Error }},
		}
		for _, step := range steps {
			if err := step.run(); err != nil {
				return fmt.Errorf("failed to delete %s: %w", step.what, err)
			}
		}
		return nil
	})
}

func validateNewImage(i int, typ, content string) error {
	if strings.TrimSpace(typ) == "" || strings.TrimSpace(content) == "" {
		return newValidationError("images[%d]: type and content are required", i)
	}
	return nil
}

func validateNewOption(i int, opt *OptionInput) error {
	if strings.TrimSpace(opt.Title) == "" {
		return newValidationError("options[%d]: title is required", i)
	}
	if opt.Shape != "" && !models.OptionShape(opt.Shape).Valid() {
		return newValidationError("options[%d]: shape must be one of: square circle", i)
	}
	if strings.TrimSpace(opt.Type) == "" {
		return newValidationError("options[%d]: type is required", i)
	}
	if !models.OptionType(opt.Type).Valid() {
		return newValidationError("options[%d]: type must be one of: text color", i)
	}
	if opt.Radius != nil && *opt.Radius < 0 {
		return newValidationError("options[%d]: radius must be greater than or equal to 0", i)
	}
	if len(opt.Values) == 0 {
		return newValidationError("options[%d]: values must contain at least 1 item(s)", i)
	}
	return nil
}

func createImage(tx *gorm.DB, productID uint, typ, content string) error {
	img := models.ProductImage{ProductID: productID, Type: typ, Content: content}
	if err := tx.Create(&img).Error; err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	return nil
}

func createOption(tx *gorm.DB, productID uint, in *OptionInput) error {
	opt := models.ProductOption{
		ProductID: productID,
		Title:     in.Title,
		Shape:     models.OptionShapeSquare,
		Type:      models.OptionType(in.Type),
	}
	if in.Shape != "" {
		opt.Shape = models.OptionShape(in.Shape)
	}
	if in.Radius != nil {
		opt.Radius = *in.Radius
	}

	if err := tx.Omit(clause.Associations).Create(&opt).Error; err != nil {
		return fmt.Errorf("failed to create option: %w", err)
	}
	return createOptionValues(tx, opt.ID, in.Values)
}

func createOptionValues(tx *gorm.DB, optionID uint, values []string) error {
	if len(values) == 0 {
		return nil
	}
	rows := make([]models.ProductOptionValue, 0, len(values))
	for _, v := range values {
		rows = append(rows, models.ProductOptionValue{OptionID: optionID, Value: v})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to create option values: %w", err)
	}
	return nil
}

func reconcileImage(tx *gorm.DB, productID uint, i int, in *ImageUpdate) error {
	if in.ID == nil {
		if in.Deleted {
			return newValidationError("images[%d]: deleted requires an id", i)
		}
		return validateAndCreateImage(tx, productID, i, in)
	}

	var img models.ProductImage
	err := tx.Where("id = ? AND product_id = ?", *in.ID, productID).First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newValidationError("image %d not found or not owned by this product", *in.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}

	if in.Deleted {
		if err := tx.Delete(&img).Error; err != nil {
			return fmt.Errorf("failed to delete image: %w", err)
		}
		return nil
	}

	if in.Type == nil && in.Content == nil {
		return nil
	}
	if in.Type == nil || in.Content == nil {
		return newValidationError("images[%d]: type and content must be supplied together", i)
	}
	if err := validateNewImage(i, *in.Type, *in.Content); err != nil {
		return err
	}
	err = tx.Model(&img).Updates(map[string]interface{}{"type": *in.Type, "content": *in.Content}).Error
	if err != nil {
		return fmt.Errorf("failed to update image: %w", err)
	}
	return nil
}

func validateAndCreateImage(tx *gorm.DB, productID uint, i int, in *ImageUpdate) error {
	var typ, content string
	if in.Type != nil {
		typ = *in.Type
	}
	if in.Content != nil {
		content = *in.Content
	}
	if err := validateNewImage(i, typ, content); err != nil {
		return err
	}
	return createImage(tx, productID, typ, content)
}

func reconcileOption(tx *gorm.DB, productID uint, i int, in *OptionUpdate) error {
	if in.ID == nil {
		if in.Deleted {
			return newValidationError("options[%d]: deleted requires an id", i)
		}
		create := OptionInput{Radius: in.Radius}
		if in.Title != nil {
			create.Title = *in.Title
		}
		if in.Shape != nil {
			create.Shape = *in.Shape
		}
		if in.Type != nil {
			create.Type = *in.Type
		}
		if in.Values != nil {
			create.Values = *in.Values
		}
		if err := validateNewOption(i, &create); err != nil {
			return err
		}
		return createOption(tx, productID, &create)
	}

	var opt models.ProductOption
	err := tx.Where("id = ? AND product_id = ?", *in.ID, productID).First(&opt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newValidationError("option %d not found or not owned by this product", *in.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to load option: %w", err)
	}

	if in.Deleted {
		if err := tx.Where("option_id = ?", opt.ID).Delete(&models.ProductOptionValue{}).Error; err != nil {
			return fmt.Errorf("failed to delete option values: %w", err)
		}
		if err := tx.Delete(&opt).Error; err != nil {
			return fmt.Errorf("failed to delete option: %w", err)
		}
		return nil
	}

	updates := make(map[string]interface{})
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return newValidationError("options[%d]: title must not be blank", i)
		}
		updates["title"] = *in.Title
	}
	if in.Shape != nil {
		if !models.OptionShape(*in.Shape).Valid() {
			return newValidationError("options[%d]: shape must be one of: square circle", i)
		}
		updates["shape"] = *in.Shape
	}
	if in.Type != nil {
		if !models.OptionType(*in.Type).Valid() {
			return newValidationError("options[%d]: type must be one of: text color", i)
		}
		updates["type"] = *in.Type
	}
	if in.Radius != nil {
		if *in.Radius < 0 {
			return newValidationError("options[%d]: radius must be greater than or equal to 0", i)
		}
		updates["radius"] = *in.Radius
	}
	if len(updates) > 0 {
		if err := tx.Model(&opt).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update option: %w", err)
		}
	}

	if in.Values != nil {
		if len(*in.Values) == 0 {
			return newValidationError("options[%d]: values must contain at least 1 item(s)", i)
		}
		if err := tx.Where("option_id = ?", opt.ID).Delete(&models.ProductOptionValue{}).Error; err != nil {
			return fmt.Errorf("failed to replace option values: %w", err)
		}
		if err := createOptionValues(tx, opt.ID, *in.Values); err != nil {
			return err
		}
	}
	return nil
}

// ensureSlugAvailable checks the slug column of model's table, ignoring the
// row with id exceptID.
func ensureSlugAvailable(tx *gorm.DB, model interface{}, slug string, exceptID uint) error {
	var count int64
	q := tx.Model(model).Where("slug = ?", slug)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check slug: %w", err)
	}
	if count > 0 {
		return newConflict("slug %q is already in use", slug)
	}
	return nil
}

// ensureCategoriesExist deduplicates ids and fails when any of them is
// unknown.
func ensureCategoriesExist(tx *gorm.DB, ids []uint) ([]uint, error) {
	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return unique, nil
	}

	var found []uint
	if err := tx.Model(&models.Category{}).Where("id IN ?", unique).Pluck("id", &found).Error; err != nil {
		return nil, fmt.Errorf("failed to check categories: %w", err)
	}
	if len(found) != len(unique) {
		existing := make(map[uint]bool, len(found))
		for _, id := range found {
			existing[id] = true
		}
		for _, id := range unique {
			if !existing[id] {
				return nil, newValidationError("category %d does not exist", id)
			}
		}
	}
	return unique, nil
}

// replaceCategories makes ids the complete category set of the product.
func replaceCategories(tx *gorm.DB, productID uint, ids []uint) error {
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductCategory{}).Error; err != nil {
		return fmt.Errorf("failed to clear categories: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	links := make([]models.ProductCategory, 0, len(ids))
	for _, id := range ids {
		links = append(links, models.ProductCategory{ProductID: productID, CategoryID: id})
	}
	if err := tx.Omit(clause.Associations).Create(&links).Error; err != nil {
		return fmt.Errorf("failed to link categories: %w", err)
	}
	return nil
}
