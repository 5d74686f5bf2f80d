package handlers

import (
	"net/http"
	"strings"

	"clinic-pos/internal/apperror"
	"clinic-pos/internal/auth"
	"clinic-pos/internal/models"

	"github.com/gin-gonic/gin"
)

// createUser validates and stores a new account with a hashed password.
func (h *Handler) createUser(c *gin.Context, username, name, password string, role models.Role) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, apperror.Validation("username is required")
	}
	if len(password) < models.MinPasswordLength {
		return models.User{}, apperror.Validation("password must be at least %d characters", models.MinPasswordLength)
	}
	if !role.Valid() {
		return models.User{}, apperror.Validation("role must be ADMIN or EMPLOYEE")
	}
	if err := h.usernameFree(c, username, 0); err != nil {
		return models.User{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = username
	}
	user := models.User{
		Username:     username,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (h *Handler) usernameFree(c *gin.Context, username string, exceptID uint) error {
	var n int64
	q := h.db.WithContext(c.Request.Context()).Model(&models.User{}).Where("username = ?", username)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperror.Validation("username %q is already taken", username)
	}
	return nil
}

// GET /api/users
func (h *Handler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.db.WithContext(c.Request.Context()).Order("id ASC").Find(&users).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, users, "")
}

type CreateUserRequest struct {
	Username string      `json:"username" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
}

// POST /api/users
func (h *Handler) CreateUser(c *gin.Context) {
	var input CreateUserRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, apperror.Validation("username and password are required"))
		return
	}
	if input.Role == "" {
		input.Role = models.RoleEmployee
	}

	user, err := h.createUser(c, input.Username, input.Name, input.Password, input.Role)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, user, "User created successfully")
}

// PUT /api/users/:id
func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var input models.UserUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, apperror.Validation("invalid input"))
		return
	}
	if err := input.Validate(); err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	var user models.User
	if err := h.db.WithContext(ctx).First(&user, id).Error; err != nil {
		h.fail(c, err)
		return
	}
	if input.Username != nil {
		if err := h.usernameFree(c, *input.Username, id); err != nil {
			h.fail(c, err)
			return
		}
	}
	if id == principal(c).ID && input.IsActive != nil && !*input.IsActive {
		h.fail(c, apperror.Validation("you cannot deactivate your own account"))
		return
	}

	input.Apply(&user)
	if input.Password != nil {
		if user.PasswordHash, err = auth.HashPassword(*input.Password); err != nil {
			h.fail(c, err)
			return
		}
	}
	if err := h.db.WithContext(ctx).Save(&user).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, user, "User updated successfully")
}

// DELETE /api/users/:id
// Users own sales, so they are deactivated rather than removed.
func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if id == principal(c).ID {
		h.fail(c, apperror.Validation("you cannot delete your own account"))
		return
	}

	ctx := c.Request.Context()
	var user models.User
	if err := h.db.WithContext(ctx).First(&user, id).Error; err != nil {
		h.fail(c, err)
		return
	}
	if err := h.db.WithContext(ctx).Model(&user).Update("is_active", false).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "User deactivated successfully")
}
