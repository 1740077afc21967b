// internal/services/product_views.go
package services

import (
	"time"

	"github.com/javajoker/catalog-backend/internal/models"
)

type ImageView struct {
	ID      uint   `json:"id"`
	Content string `json:"content"`
}

type OptionView struct {
	ID     uint               `json:"id"`
	Title  string             `json:"title"`
	Shape  models.OptionShape `json:"shape"`
	Radius int                `json:"radius"`
	Type   models.OptionType  `json:"type"`
	Values []string           `json:"values"`
}

// ProductSummary is one search hit. It carries only the selected columns
// plus the shaped children, so it is a map rather than a struct.
type ProductSummary map[string]interface{}

type ProductDetail struct {
	ID                uint         `json:"id"`
	Enabled           bool         `json:"enabled"`
	Name              string       `json:"name"`
	Slug              string       `json:"slug"`
	UseInMenu         bool         `json:"use_in_menu"`
	Stock             int          `json:"stock"`
	Description       string       `json:"description"`
	Price             float64      `json:"price"`
	PriceWithDiscount *float64     `json:"price_with_discount"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
	Images            []ImageView  `json:"images"`
	Options           []OptionView `json:"options"`
	CategoryIDs       []uint       `json:"category_ids"`
}

func newProductDetail(p models.Product) ProductDetail {
	return ProductDetail{
		ID:                p.ID,
		Enabled:           p.Enabled,
		Name:              p.Name,
		Slug:              p.Slug,
		UseInMenu:         p.UseInMenu,
		Stock:             p.Stock,
		Description:       p.Description,
		Price:             p.Price,
		PriceWithDiscount: p.PriceWithDiscount,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Images:            imageViews(p.Images),
		Options:           optionViews(p.Options),
		CategoryIDs:       categoryIDs(p.Categories),
	}
}

func newProductSummary(p models.Product, fields []string) ProductSummary {
	out := ProductSummary{
		"images":       imageViews(p.Images),
		"options":      optionViews(p.Options),
		"category_ids": categoryIDs(p.Categories),
	}
	for _, field := range fields {
		switch field {
		case "id":
			out["id"] = p.ID
		case "enabled":
			out["enabled"] = p.Enabled
		case "name":
			out["name"] = p.Name
		case "slug":
			out["slug"] = p.Slug
		case "stock":
			out["stock"] = p.Stock
		case "description":
			out["description"] = p.Description
		case "price":
			out["price"] = p.Price
		case "price_with_discount":
			out["price_with_discount"] = p.PriceWithDiscount
		}
	}
	return out
}

func imageViews(images []models.ProductImage) []ImageView {
	out := make([]ImageView, 0, len(images))
	for _, img := range images {
		out = append(out, ImageView{ID: img.ID, Content: img.Content})
	}
	return out
}

func optionViews(options []models.ProductOption) []OptionView {
	out := make([]OptionView, 0, len(options))
	for _, opt := range options {
		values := make([]string, 0, len(opt.Values))
		for _, v := range opt.Values {
			values = append(values, v.Value)
		}
		out = append(out, OptionView{
			ID:     opt.ID,
			Title:  opt.Title,
			Shape:  opt.Shape,
			Radius: opt.Radius,
			Type:   opt.Type,
			Values: values,
		})
	}
	return out
}

func categoryIDs(links []models.ProductCategory) []uint {
	out := make([]uint, 0, len(links))
	for _, link := range links {
		out = append(out, link.CategoryID)
	}
	return out
}
