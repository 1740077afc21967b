// internal/handlers/category.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/catalog-backend/internal/services"
	"github.com/javajoker/catalog-backend/internal/utils"
)

type CategoryHandler struct {
	categoryService *services.CategoryService
}

func NewCategoryHandler(categoryService *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
	}
}

// GET /v1/category/search
func (h *CategoryHandler) SearchCategories(c *gin.Context) {
	params, err := services.ParseCategorySearchParams(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.categoryService.SearchCategories(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /v1/category/:id
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	category, err := h.categoryService.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, category)
}

// POST /v1/category
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req services.CreateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, category)
}

// PUT /v1/category/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req services.UpdateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.categoryService.UpdateCategory(c.Request.Context(), id, &req); err != nil {
		respondError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

// DELETE /v1/category/:id
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.categoryService.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	utils.NoContentResponse(c)
}
