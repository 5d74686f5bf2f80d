package handlers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"clinic-pos/internal/apperror"
	"clinic-pos/internal/middleware"
	"clinic-pos/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const customerImageDir = "customers"

// CustomerView is a customer row in the list with its purchase count.
type CustomerView struct {
	models.Customer
	SalesCount int64 `json:"salesCount"`
}

func customerForm(c *gin.Context) (models.CustomerUpdate, error) {
	f := newFormReader(c)
	u := models.CustomerUpdate{
		FirstName: f.Text("firstName"),
		LastName:  f.Text("lastName"),
		Phone:     f.Text("phone"),
		Age:       f.Int("age"),
		Province:  f.Text("province"),
		District:  f.Text("district"),
		Village:   f.Text("village"),
	}
	return u, f.Err()
}

func (h *Handler) phoneFree(c *gin.Context, phone string, exceptID uint) error {
	var n int64
	q := h.db.WithContext(c.Request.Context()).Model(&models.Customer{}).Where("phone = ?", phone)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperror.Validation("phone %s is already registered", phone)
	}
	return nil
}

// findVisibleCustomer loads a customer and checks the caller may see it.
func (h *Handler) findVisibleCustomer(c *gin.Context, id uint) (models.Customer, error) {
	var customer models.Customer
	if err := h.db.WithContext(c.Request.Context()).First(&customer, id).Error; err != nil {
		return models.Customer{}, err
	}
	if !middleware.Rules(c).AllowsCustomer(principal(c), customer.ID) {
		return models.Customer{}, apperror.Forbidden("you do not have access to this customer")
	}
	return customer, nil
}

// GET /api/customers
func (h *Handler) ListCustomers(c *gin.Context) {
	pg := parsePage(c)
	rules := middleware.Rules(c)

	q := h.db.WithContext(c.Request.Context()).
		Model(&models.Customer{}).
		Scopes(rules.Customers(principal(c)))
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + search + "%"
		q = q.Where("customers.first_name LIKE ? OR customers.last_name LIKE ? OR customers.phone LIKE ?", like, like, like)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		h.fail(c, err)
		return
	}

	var customers []models.Customer
	if err := q.Order("customers.created_at DESC").Offset(pg.Offset()).Limit(pg.Limit).Find(&customers).Error; err != nil {
		h.fail(c, err)
		return
	}

	counts := make(map[uint]int64, len(customers))
	if len(customers) > 0 {
		ids := make([]uint, len(customers))
		for i, cu := range customers {
			ids[i] = cu.ID
		}
		var rows []struct {
			CustomerID uint
			N          int64
		}
		err := h.db.WithContext(c.Request.Context()).
			Model(&models.Sale{}).
			Select("customer_id, COUNT(*) AS n").
			Where("customer_id IN ?", ids).
			Group("customer_id").
			Scan(&rows).Error
		if err != nil {
			h.fail(c, err)
			return
		}
		for _, r := range rows {
			counts[r.CustomerID] = r.N
		}
	}

	out := make([]CustomerView, 0, len(customers))
	for _, cu := range customers {
		out = append(out, CustomerView{Customer: cu, SalesCount: counts[cu.ID]})
	}
	respondList(c, out, pg.Of(total))
}

// GET /api/customers/:id
// Includes the purchase history the caller is allowed to see.
func (h *Handler) GetCustomer(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if _, err := h.findVisibleCustomer(c, id); err != nil {
		h.fail(c, err)
		return
	}

	rules, p := middleware.Rules(c), principal(c)
	var customer models.Customer
	err = h.db.WithContext(c.Request.Context()).
		Preload("Sales", func(db *gorm.DB) *gorm.DB {
			return db.Scopes(rules.Sales(p)).Order("sales.created_at DESC")
		}).
		Preload("Sales.User").
		Preload("Sales.Items.Product").
		Preload("Sales.Items.Service").
		First(&customer, id).Error
	if err != nil {
		h.fail(c, err)
		return
	}
	if customer.Sales == nil {
		customer.Sales = []models.Sale{}
	}
	respond(c, http.StatusOK, customer, "")
}

// POST /api/customers (multipart, optional "image" file)
func (h *Handler) CreateCustomer(c *gin.Context) {
	input, err := customerForm(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if input.FirstName == nil || input.LastName == nil || input.Phone == nil {
		h.fail(c, apperror.Validation("firstName, lastName and phone are required"))
		return
	}
	// Address parts are optional on create; blank means not given.
	for _, p := range []**string{&input.Province, &input.District, &input.Village} {
		if *p != nil && strings.TrimSpace(**p) == "" {
			*p = nil
		}
	}
	if err := input.Validate(); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.phoneFree(c, *input.Phone, 0); err != nil {
		h.fail(c, err)
		return
	}

	var customer models.Customer
	input.Apply(&customer)

	if fh, err := c.FormFile("image"); err == nil {
		path, err := h.saveImages(c, customerImageDir, []*multipart.FileHeader{fh})
		if err != nil {
			h.fail(c, err)
			return
		}
		customer.Image = &path[0]
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&customer).Error; err != nil {
		if customer.Image != nil {
			h.removeFiles(c, []string{*customer.Image})
		}
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, customer, "Customer created successfully")
}

// PUT /api/customers/:id (multipart, partial)
// A new image replaces the old one, which is then deleted.
func (h *Handler) UpdateCustomer(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	customer, err := h.findVisibleCustomer(c, id)
	if err != nil {
		h.fail(c, err)
		return
	}

	input, err := customerForm(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := input.Validate(); err != nil {
		h.fail(c, err)
		return
	}
	if input.Phone != nil && *input.Phone != customer.Phone {
		if err := h.phoneFree(c, *input.Phone, id); err != nil {
			h.fail(c, err)
			return
		}
	}

	var oldImage, newImage *string
	if fh, err := c.FormFile("image"); err == nil {
		path, err := h.saveImages(c, customerImageDir, []*multipart.FileHeader{fh})
		if err != nil {
			h.fail(c, err)
			return
		}
		oldImage, newImage = customer.Image, &path[0]
	}

	input.Apply(&customer)
	if newImage != nil {
		customer.Image = newImage
	}
	if err := h.db.WithContext(c.Request.Context()).Omit("Sales").Save(&customer).Error; err != nil {
		if newImage != nil {
			h.removeFiles(c, []string{*newImage})
		}
		h.fail(c, err)
		return
	}
	if oldImage != nil {
		h.removeFiles(c, []string{*oldImage})
	}

	respond(c, http.StatusOK, customer, "Customer updated successfully")
}

// DELETE /api/customers/:id
// A customer with purchase history cannot be removed.
func (h *Handler) DeleteCustomer(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	customer, err := h.findVisibleCustomer(c, id)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	var sales int64
	if err := h.db.WithContext(ctx).Model(&models.Sale{}).Where("customer_id = ?", id).Count(&sales).Error; err != nil {
		h.fail(c, err)
		return
	}
	if sales > 0 {
		h.fail(c, apperror.Validation("cannot delete a customer with %d recorded sales", sales))
		return
	}

	if err := h.db.WithContext(ctx).Delete(&customer).Error; err != nil {
		h.fail(c, err)
		return
	}
	if customer.Image != nil {
		h.removeFiles(c, []string{*customer.Image})
	}
	respond(c, http.StatusOK, nil, "Customer deleted successfully")
}
