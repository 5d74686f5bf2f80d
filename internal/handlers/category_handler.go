package handlers

import (
	"net/http"

	"clinic-pos/internal/apperror"
	"clinic-pos/internal/models"

	"github.com/gin-gonic/gin"
)

// CategoryView is a category with the number of active products in it.
type CategoryView struct {
	models.ProductCategory
	ProductCount int64 `json:"productCount"`
}

// GET /api/categories
func (h *Handler) ListCategories(c *gin.Context) {
	ctx := c.Request.Context()

	var categories []models.ProductCategory
	if err := h.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		h.fail(c, err)
		return
	}

	var counts []struct {
		CategoryID uint
		N          int64
	}
	err := h.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("category_id, COUNT(*) AS n").
		Where("is_active = ?", true).
		Group("category_id").
		Scan(&counts).Error
	if err != nil {
		h.fail(c, err)
		return
	}
	byCategory := make(map[uint]int64, len(counts))
	for _, row := range counts {
		byCategory[row.CategoryID] = row.N
	}

	out := make([]CategoryView, 0, len(categories))
	for _, cat := range categories {
		out = append(out, CategoryView{ProductCategory: cat, ProductCount: byCategory[cat.ID]})
	}
	respond(c, http.StatusOK, out, "")
}

// POST /api/categories
func (h *Handler) CreateCategory(c *gin.Context) {
	var input models.CategoryUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, apperror.Validation("invalid input"))
		return
	}
	if input.Name == nil || input.Unit == nil {
		h.fail(c, apperror.Validation("name and unit are required"))
		return
	}
	if err := input.Validate(); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.categoryNameFree(c, *input.Name, 0); err != nil {
		h.fail(c, err)
		return
	}

	var category models.ProductCategory
	input.Apply(&category)
	if err := h.db.WithContext(c.Request.Context()).Create(&category).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, category, "Category created successfully")
}

// PUT /api/categories/:id
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var input models.CategoryUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, apperror.Validation("invalid input"))
		return
	}
	if err := input.Validate(); err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	var category models.ProductCategory
	if err := h.db.WithContext(ctx).First(&category, id).Error; err != nil {
		h.fail(c, err)
		return
	}
	if input.Name != nil {
		if err := h.categoryNameFree(c, *input.Name, id); err != nil {
			h.fail(c, err)
			return
		}
	}

	input.Apply(&category)
	if err := h.db.WithContext(ctx).Save(&category).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, category, "Category updated successfully")
}

// DELETE /api/categories/:id
// Refused while active products still use the category.
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	var category models.ProductCategory
	if err := h.db.WithContext(ctx).First(&category, id).Error; err != nil {
		h.fail(c, err)
		return
	}

	var inUse int64
	err = h.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category_id = ? AND is_active = ?", id, true).
		Count(&inUse).Error
	if err != nil {
		h.fail(c, err)
		return
	}
	if inUse > 0 {
		h.fail(c, apperror.Validation("cannot delete category: %d active products still use it", inUse))
		return
	}

	if err := h.db.WithContext(ctx).Delete(&category).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Category deleted successfully")
}

func (h *Handler) categoryNameFree(c *gin.Context, name string, exceptID uint) error {
	var n int64
	q := h.db.WithContext(c.Request.Context()).Model(&models.ProductCategory{}).Where("name = ?", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperror.Validation("category %q already exists", name)
	}
	return nil
}
