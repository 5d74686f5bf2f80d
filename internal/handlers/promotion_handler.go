package handlers

import (
	"net/http"
	"time"

	"clinic-pos/internal/apperror"
	"clinic-pos/internal/models"
	"clinic-pos/internal/reporting"

	"github.com/gin-gonic/gin"
)

const promotionImageDir = "promotions"

// promotionForm reads a promotion from a multipart body. The end date covers
// its whole last day.
func promotionForm(c *gin.Context) (models.PromotionUpdate, error) {
	f := newFormReader(c)
	u := models.PromotionUpdate{
		Name:        f.Text("name"),
		Description: f.Text("description"),
		Discount:    f.Decimal("discount"),
		IsPercent:   f.Bool("isPercent"),
		StartDate:   f.Time("startDate"),
		EndDate:     f.Time("endDate"),
		IsActive:    f.Bool("isActive"),
	}
	if u.EndDate != nil {
		end := reporting.EndOfDay(u.EndDate.Local())
		u.EndDate = &end
	}
	return u, f.Err()
}

// GET /api/promotions
func (h *Handler) ListPromotions(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Order("created_at DESC")
	if c.Query("active") == "true" {
		now := time.Now()
		q = q.Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now)
	}

	var promotions []models.Promotion
	if err := q.Find(&promotions).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, promotions, "")
}

// GET /api/promotions-public
// No authentication; only promotions running right now.
func (h *Handler) PublicPromotions(c *gin.Context) {
	now := time.Now()
	var promotions []models.Promotion
	err := h.db.WithContext(c.Request.Context()).
		Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now).
		Order("created_at DESC").
		Find(&promotions).Error
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, promotions, "")
}

// POST /api/promotions (multipart)
func (h *Handler) CreatePromotion(c *gin.Context) {
	input, err := promotionForm(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if input.Name == nil || input.Discount == nil || input.StartDate == nil || input.EndDate == nil {
		h.fail(c, apperror.Validation("name, discount, startDate and endDate are required"))
		return
	}
	if err := input.Validate(); err != nil {
		h.fail(c, err)
		return
	}

	promotion := models.Promotion{IsActive: true}
	input.Apply(&promotion)
	if err := models.CheckPromotion(promotion); err != nil {
		h.fail(c, err)
		return
	}

	files := uploadedFiles(c, "images")
	if len(files) > models.MaxImages {
		h.fail(c, apperror.Validation("a record can hold at most %d images", models.MaxImages))
		return
	}
	paths, err := h.saveImages(c, promotionImageDir, files)
	if err != nil {
		h.fail(c, err)
		return
	}
	promotion.Images = paths

	if err := h.db.WithContext(c.Request.Context()).Create(&promotion).Error; err != nil {
		h.removeFiles(c, paths)
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, promotion, "Promotion created successfully")
}

// PUT /api/promotions/:id (multipart, partial)
func (h *Handler) UpdatePromotion(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	var promotion models.Promotion
	if err := h.db.WithContext(ctx).First(&promotion, id).Error; err != nil {
		h.fail(c, err)
		return
	}

	input, err := promotionForm(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := input.Validate(); err != nil {
		h.fail(c, err)
		return
	}

	f := newFormReader(c)
	keep := f.StringList("existingImages")
	if err := f.Err(); err != nil {
		h.fail(c, err)
		return
	}
	files := uploadedFiles(c, "images")
	images, dropped, err := reconcileImages(promotion.Images, keep, len(files))
	if err != nil {
		h.fail(c, err)
		return
	}

	input.Apply(&promotion)
	if err := models.CheckPromotion(promotion); err != nil {
		h.fail(c, err)
		return
	}

	added, err := h.saveImages(c, promotionImageDir, files)
	if err != nil {
		h.fail(c, err)
		return
	}
	promotion.Images = append(images, added...)

	if err := h.db.WithContext(ctx).Save(&promotion).Error; err != nil {
		h.removeFiles(c, added)
		h.fail(c, err)
		return
	}
	h.removeFiles(c, dropped)

	respond(c, http.StatusOK, promotion, "Promotion updated successfully")
}

// DELETE /api/promotions/:id (soft)
func (h *Handler) DeletePromotion(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	var promotion models.Promotion
	if err := h.db.WithContext(ctx).First(&promotion, id).Error; err != nil {
		h.fail(c, err)
		return
	}
	if err := h.db.WithContext(ctx).Model(&promotion).Update("is_active", false).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Promotion deleted successfully")
}
