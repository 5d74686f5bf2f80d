package handlers

import (
	"errors"
	"net/http"
	"strings"

	"clinic-pos/internal/apperror"
	"clinic-pos/internal/auth"
	"clinic-pos/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	// 1. Validate Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, apperror.Validation("username and password are required"))
		return
	}

	// 2. Find User in DB
	var user models.User
	err := h.db.WithContext(c.Request.Context()).
		Where("username = ?", strings.TrimSpace(input.Username)).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		h.fail(c, apperror.Unauthorized("Invalid credentials"))
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	// 3. Verify Password (Bcrypt) and that the account is still enabled
	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		h.fail(c, apperror.Unauthorized("Invalid credentials"))
		return
	}
	if !user.IsActive {
		h.fail(c, apperror.Unauthorized("Account is disabled"))
		return
	}

	// 4. Generate JWT Token
	token, err := h.tokens.Generate(user.ID, user.Role)
	if err != nil {
		h.fail(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"token": token, "user": user}, "Login successful")
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

// POST /api/auth/register
// Only mounted when ALLOW_REGISTRATION=true. Always creates an employee.
func (h *Handler) Register(c *gin.Context) {
	var input RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, apperror.Validation("username and password are required"))
		return
	}

	user, err := h.createUser(c, input.Username, input.Name, input.Password, models.RoleEmployee)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, user, "User created successfully")
}

// GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, principal(c).ID).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, user, "")
}
