package handlers

import (
	"net/http"

	"clinic-pos/internal/apperror"
	"clinic-pos/internal/models"

	"github.com/gin-gonic/gin"
)

// GET /api/services
func (h *Handler) ListServices(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Order("name ASC")
	if c.Query("includeInactive") != "true" {
		q = q.Where("is_active = ?", true)
	}
	if search := c.Query("search"); search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}

	var services []models.Service
	if err := q.Find(&services).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, services, "")
}

// POST /api/services
func (h *Handler) CreateService(c *gin.Context) {
	var input models.ServiceUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, apperror.Validation("invalid input"))
		return
	}
	if input.Name == nil || input.Price == nil {
		h.fail(c, apperror.Validation("name and price are required"))
		return
	}
	if err := input.Validate(); err != nil {
		h.fail(c, err)
		return
	}

	service := models.Service{IsActive: true}
	input.Apply(&service)
	if err := h.db.WithContext(c.Request.Context()).Create(&service).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, service, "Service created successfully")
}

// PUT /api/services/:id
func (h *Handler) UpdateService(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var input models.ServiceUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, apperror.Validation("invalid input"))
		return
	}
	if err := input.Validate(); err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	var service models.Service
	if err := h.db.WithContext(ctx).First(&service, id).Error; err != nil {
		h.fail(c, err)
		return
	}
	input.Apply(&service)
	if err := h.db.WithContext(ctx).Save(&service).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, service, "Service updated successfully")
}

// DELETE /api/services/:id (soft)
func (h *Handler) DeleteService(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	var service models.Service
	if err := h.db.WithContext(ctx).First(&service, id).Error; err != nil {
		h.fail(c, err)
		return
	}
	if err := h.db.WithContext(ctx).Model(&service).Update("is_active", false).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Service deleted successfully")
}
