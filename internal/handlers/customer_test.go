package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"clinic-pos/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerHiddenFromEmployeeOnceAdminSold(t *testing.T) {
	env := newEnv(t)
	touched := env.customer("02011111111")
	mine := env.customer("02022222222")
	env.sale(env.admin.ID, touched.ID, 100, models.StatusPaid, time.Now())
	env.sale(env.employee.ID, mine.ID, 20, models.StatusPaid, time.Now())

	emp := env.token(env.employee)
	w := env.json(http.MethodGet, "/api/customers", emp, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decodeData[[]CustomerView](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)
	assert.Equal(t, int64(1), list[0].SalesCount)
	assert.Equal(t, int64(1), decode(t, w).Pagination.Total)

	w = env.json(http.MethodGet, "/api/customers/"+itoa(touched.ID), emp, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.multipart(http.MethodPut, "/api/customers/"+itoa(touched.ID), emp, map[string]string{"firstName": "X"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := env.token(env.admin)
	w = env.json(http.MethodGet, "/api/customers/"+itoa(touched.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[models.Customer](t, w).Sales, 1)
	w = env.json(http.MethodGet, "/api/customers", admin, nil)
	assert.Len(t, decodeData[[]CustomerView](t, w), 2)
}

func TestEmployeeSeesEverythingWhileAdminHasNoSales(t *testing.T) {
	env := newEnv(t)
	a := env.customer("02011111111")
	env.customer("02022222222")
	env.sale(env.employee.ID, a.ID, 20, models.StatusPaid, time.Now())

	emp := env.token(env.employee)
	w := env.json(http.MethodGet, "/api/customers", emp, nil)
	assert.Len(t, decodeData[[]CustomerView](t, w), 2)

	w = env.json(http.MethodGet, "/api/customers/"+itoa(a.ID), emp, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[models.Customer](t, w).Sales, 1)
}

func TestCustomerLifecycle(t *testing.T) {
	env := newEnv(t)
	emp := env.token(env.employee)

	w := env.multipart(http.MethodPost, "/api/customers", emp, map[string]string{
		"firstName": "Bounmy", "lastName": "Phom", "phone": "020 5555 1234", "age": "41",
		"province": "Vientiane", "district": "Chanthabuly", "village": "Ban Mixay",
	}, upload{"image", "face.jpg", "jpeg-bytes"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeData[models.Customer](t, w)
	assert.Equal(t, "02055551234", created.Phone)
	require.NotNil(t, created.Image)
	assert.True(t, env.store.Exists(*created.Image))

	w = env.multipart(http.MethodPost, "/api/customers", emp, map[string]string{
		"firstName": "Other", "lastName": "Person", "phone": "02055551234",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.multipart(http.MethodPost, "/api/customers", emp, map[string]string{
		"firstName": "Bad", "lastName": "Phone", "phone": "12-34",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Replacing the picture removes the old file.
	oldImage := *created.Image
	w = env.multipart(http.MethodPut, "/api/customers/"+itoa(created.ID), emp,
		map[string]string{"age": "42"}, upload{"image", "new.png", "png-bytes"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeData[models.Customer](t, w)
	require.NotNil(t, updated.Age)
	assert.Equal(t, 42, *updated.Age)
	assert.Equal(t, "Bounmy", updated.FirstName)
	assert.False(t, env.store.Exists(oldImage))
	assert.True(t, env.store.Exists(*updated.Image))

	w = env.multipart(http.MethodPut, "/api/customers/"+itoa(created.ID), emp, map[string]string{"age": "200"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.json(http.MethodDelete, "/api/customers/"+itoa(created.ID), emp, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, env.store.Exists(*updated.Image))
}

func TestCustomerWithSalesCannotBeDeleted(t *testing.T) {
	env := newEnv(t)
	c := env.customer("02011111111")
	env.sale(env.employee.ID, c.ID, 10, models.StatusUnpaid, time.Now())

	w := env.json(http.MethodDelete, "/api/customers/"+itoa(c.ID), env.token(env.admin), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.Contains(decode(t, w).Error, "sales"))

	var n int64
	require.NoError(t, env.db.Model(&models.Customer{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}
