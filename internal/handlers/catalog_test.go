package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"clinic-pos/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteCategoryInUse(t *testing.T) {
	env := newEnv(t)
	cat := env.category("Antibiotics")
	var products []models.Product
	for _, name := range []string{"A", "B", "C"} {
		products = append(products, env.product(name, cat.ID, 10, 10, 5))
	}
	tok := env.token(env.employee)

	w := env.json(http.MethodDelete, "/api/categories/"+itoa(cat.ID), tok, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Error, "3")

	require.NoError(t, env.db.Model(&models.Product{}).Where("category_id = ?", cat.ID).Update("is_active", false).Error)
	w = env.json(http.MethodDelete, "/api/categories/"+itoa(cat.ID), tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var n int64
	require.NoError(t, env.db.Model(&models.ProductCategory{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)
	require.NoError(t, env.db.Model(&models.Product{}).Count(&n).Error)
	assert.Equal(t, int64(len(products)), n)
}

func TestCategoryCRUD(t *testing.T) {
	env := newEnv(t)
	tok := env.token(env.employee)

	w := env.json(http.MethodPost, "/api/categories", tok, jsonBody{"name": "Syrups", "unit": "bottle"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cat := decodeData[models.ProductCategory](t, w)

	assert.Equal(t, http.StatusBadRequest, env.json(http.MethodPost, "/api/categories", tok, jsonBody{"name": "Syrups", "unit": "bottle"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.json(http.MethodPost, "/api/categories", tok, jsonBody{"name": "Drops"}).Code)

	env.product("Cough syrup", cat.ID, 25, 3, 5)
	w = env.json(http.MethodGet, "/api/categories", tok, nil)
	list := decodeData[[]CategoryView](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].ProductCount)

	w = env.json(http.MethodPut, "/api/categories/"+itoa(cat.ID), tok, jsonBody{"unit": "bottle (100ml)"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeData[models.ProductCategory](t, w)
	assert.Equal(t, "Syrups", updated.Name)
	assert.Equal(t, "bottle (100ml)", updated.Unit)
}

func TestProductCreateAndImageReconcile(t *testing.T) {
	env := newEnv(t)
	cat := env.category("Tablets")
	tok := env.token(env.employee)

	w := env.multipart(http.MethodPost, "/api/products", tok, map[string]string{
		"name": "Ibuprofen", "price": "12.50", "categoryId": itoa(cat.ID), "stock": "4",
	}, upload{"images", "a.png", "a"}, upload{"images", "b.jpg", "b"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeData[ProductView](t, w)
	assert.True(t, created.CostPrice.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 5, created.MinStock)
	assert.True(t, created.IsLowStock)
	assert.False(t, created.IsOutOfStock)
	require.Len(t, created.Images, 2)
	for _, img := range created.Images {
		assert.True(t, env.store.Exists(img))
	}

	keep, err := json.Marshal([]string{created.Images[1]})
	require.NoError(t, err)
	w = env.multipart(http.MethodPut, "/api/products/"+itoa(created.ID), tok, map[string]string{
		"existingImages": string(keep), "stock": "40",
	}, upload{"images", "c.webp", "c"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeData[ProductView](t, w)
	require.Len(t, updated.Images, 2)
	assert.Equal(t, created.Images[1], updated.Images[0])
	assert.False(t, env.store.Exists(created.Images[0]))
	assert.Equal(t, 40, updated.Stock)
	assert.False(t, updated.IsLowStock)
	assert.Equal(t, "Ibuprofen", updated.Name)

	w = env.json(http.MethodDelete, "/api/products/"+itoa(created.ID), tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.json(http.MethodGet, "/api/products", tok, nil)
	assert.Empty(t, decodeData[[]ProductView](t, w))
	w = env.json(http.MethodGet, "/api/products?includeInactive=true", env.token(env.admin), nil)
	assert.Len(t, decodeData[[]ProductView](t, w), 1)
}

func TestProductValidation(t *testing.T) {
	env := newEnv(t)
	cat := env.category("Tablets")
	tok := env.token(env.employee)

	cases := map[string]map[string]string{
		"no name":          {"price": "1", "categoryId": itoa(cat.ID)},
		"zero price":       {"name": "X", "price": "0", "categoryId": itoa(cat.ID)},
		"bad price":        {"name": "X", "price": "abc", "categoryId": itoa(cat.ID)},
		"no category":      {"name": "X", "price": "1"},
		"unknown category": {"name": "X", "price": "1", "categoryId": "999"},
		"negative stock":   {"name": "X", "price": "1", "categoryId": itoa(cat.ID), "stock": "-1"},
	}
	for name, fields := range cases {
		w := env.multipart(http.MethodPost, "/api/products", tok, fields)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}

	var files []upload
	for range models.MaxImages + 1 {
		files = append(files, upload{"images", "x.png", "x"})
	}
	w := env.multipart(http.MethodPost, "/api/products", tok,
		map[string]string{"name": "X", "price": "1", "categoryId": itoa(cat.ID)}, files...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductListFilters(t *testing.T) {
	env := newEnv(t)
	tabs := env.category("Tablets")
	drops := env.category("Drops")
	env.product("Amoxicillin", tabs.ID, 20, 5, 5)
	env.product("Aspirin", tabs.ID, 5, 50, 5)
	env.product("Eye drops", drops.ID, 30, 1, 2)
	tok := env.token(env.employee)

	w := env.json(http.MethodGet, "/api/products?lowStock=true", tok, nil)
	assert.Len(t, decodeData[[]ProductView](t, w), 2)

	w = env.json(http.MethodGet, "/api/products?categoryId="+itoa(tabs.ID)+"&search=Asp", tok, nil)
	list := decodeData[[]ProductView](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Aspirin", list[0].Name)

	w = env.json(http.MethodGet, "/api/products?limit=2&page=2", tok, nil)
	env2 := decode(t, w)
	require.NotNil(t, env2.Pagination)
	assert.Equal(t, Pagination{Total: 3, Page: 2, Limit: 2, TotalPages: 2}, *env2.Pagination)
}

func TestServices(t *testing.T) {
	env := newEnv(t)
	tok := env.token(env.employee)

	w := env.json(http.MethodPost, "/api/services", tok, jsonBody{"name": "Injection", "price": 35000})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	svc := decodeData[models.Service](t, w)
	assert.True(t, svc.IsActive)

	assert.Equal(t, http.StatusBadRequest, env.json(http.MethodPost, "/api/services", tok, jsonBody{"name": "Free", "price": 0}).Code)

	w = env.json(http.MethodPut, "/api/services/"+itoa(svc.ID), tok, jsonBody{"price": 40000})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeData[models.Service](t, w).Price.Equal(decimal.NewFromInt(40000)))

	require.Equal(t, http.StatusOK, env.json(http.MethodDelete, "/api/services/"+itoa(svc.ID), tok, nil).Code)
	w = env.json(http.MethodGet, "/api/services", tok, nil)
	assert.Empty(t, decodeData[[]models.Service](t, w))
}

func TestPromotions(t *testing.T) {
	env := newEnv(t)
	tok := env.token(env.admin)
	today := time.Now().Format("2006-01-02")
	nextWeek := time.Now().AddDate(0, 0, 7).Format("2006-01-02")

	w := env.multipart(http.MethodPost, "/api/promotions", tok, map[string]string{
		"name": "Flu season", "discount": "15", "isPercent": "true", "startDate": today, "endDate": nextWeek,
	}, upload{"images", "banner.png", "png"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	promo := decodeData[models.Promotion](t, w)
	assert.Len(t, promo.Images, 1)
	assert.Equal(t, 23, promo.EndDate.Local().Hour())

	w = env.multipart(http.MethodPost, "/api/promotions", tok, map[string]string{
		"name": "Backwards", "discount": "5", "startDate": nextWeek, "endDate": today,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.multipart(http.MethodPost, "/api/promotions", tok, map[string]string{
		"name": "Too much", "discount": "150", "isPercent": "true", "startDate": today, "endDate": nextWeek,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The public list needs no token.
	w = env.json(http.MethodGet, "/api/promotions-public", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]models.Promotion](t, w), 1)

	w = env.multipart(http.MethodPut, "/api/promotions/"+itoa(promo.ID), tok, map[string]string{
		"existingImages": "[]", "isActive": "false",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, decodeData[models.Promotion](t, w).Images)
	assert.False(t, env.store.Exists(promo.Images[0]))

	w = env.json(http.MethodGet, "/api/promotions-public", "", nil)
	assert.Empty(t, decodeData[[]models.Promotion](t, w))
}
