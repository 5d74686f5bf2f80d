package main

import (
	"testing"

	"clinic-pos/internal/auth"
	"clinic-pos/internal/database"
	"clinic-pos/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSeedIsIdempotent(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	passwords := seedPasswords{admin: "admin123", employee: "staff123"}

	require.NoError(t, seed(db, passwords, log))
	require.NoError(t, seed(db, passwords, log))

	count := func(model any) int64 {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return n
	}
	assert.Equal(t, int64(2), count(&models.User{}))
	assert.Equal(t, int64(len(seedCategories)), count(&models.ProductCategory{}))
	assert.Equal(t, int64(len(seedProducts)), count(&models.Product{}))
	assert.Equal(t, int64(len(seedServices)), count(&models.Service{}))
	assert.Equal(t, int64(1), count(&models.Customer{}))

	var admin models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, auth.CheckPassword(admin.PasswordHash, "admin123"))

	var zinc models.Product
	require.NoError(t, db.Preload("Category").Where("name = ?", "Zinc 15mg").First(&zinc).Error)
	require.NotNil(t, zinc.Category)
	assert.Equal(t, "Vitamins", zinc.Category.Name)
	assert.True(t, zinc.IsLowStock())
}
