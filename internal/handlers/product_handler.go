package handlers

import (
	"errors"
	"net/http"

	"clinic-pos/internal/apperror"
	"clinic-pos/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	productImageDir = "products"
	defaultMinStock = 5
)

// ProductView adds the stock flags the counter screen shows.
type ProductView struct {
	models.Product
	IsLowStock   bool `json:"isLowStock"`
	IsOutOfStock bool `json:"isOutOfStock"`
}

func viewProduct(p models.Product) ProductView {
	return ProductView{Product: p, IsLowStock: p.IsLowStock(), IsOutOfStock: p.Stock <= 0}
}

// --- GET: List products ---
// ?search, ?categoryId, ?lowStock=true, ?includeInactive=true (admins only)
func (h *Handler) ListProducts(c *gin.Context) {
	pg := parsePage(c)
	q := h.db.WithContext(c.Request.Context()).Model(&models.Product{})

	if !(c.Query("includeInactive") == "true" && principal(c).IsAdmin()) {
		q = q.Where("is_active = ?", true)
	}
	if search := c.Query("search"); search != "" {
		q = q.Where("name LIKE ?", "%"+search+"%")
	}
	if cat := c.Query("categoryId"); cat != "" {
		q = q.Where("category_id = ?", cat)
	}
	if c.Query("lowStock") == "true" {
		q = q.Where("stock <= min_stock")
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		h.fail(c, err)
		return
	}

	var products []models.Product
	err := q.Preload("Category").
		Order("name ASC").
		Offset(pg.Offset()).
		Limit(pg.Limit).
		Find(&products).Error
	if err != nil {
		h.fail(c, err)
		return
	}

	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		out = append(out, viewProduct(p))
	}
	respondList(c, out, pg.Of(total))
}

// --- GET: One product ---
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var product models.Product
	if err := h.db.WithContext(c.Request.Context()).Preload("Category").First(&product, id).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, viewProduct(product), "")
}

func productForm(c *gin.Context) (models.ProductUpdate, error) {
	f := newFormReader(c)
	u := models.ProductUpdate{
		Name:        f.Text("name"),
		Description: f.Text("description"),
		Price:       f.Decimal("price"),
		CostPrice:   f.Decimal("costPrice"),
		Stock:       f.Int("stock"),
		MinStock:    f.Int("minStock"),
		CategoryID:  f.Uint("categoryId"),
	}
	return u, f.Err()
}

func (h *Handler) requireCategory(c *gin.Context, id uint) error {
	var category models.ProductCategory
	err := h.db.WithContext(c.Request.Context()).Select("id").First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Validation("category %d does not exist", id)
	}
	return err
}

// --- POST: Add a new product (multipart) ---
func (h *Handler) CreateProduct(c *gin.Context) {
	// 1. Parse and validate the form
	input, err := productForm(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	switch {
	case input.Name == nil:
		err = apperror.Validation("name is required")
	case input.Price == nil:
		err = apperror.Validation("price is required")
	case input.CategoryID == nil:
		err = apperror.Validation("category is required")
	default:
		err = input.Validate()
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.requireCategory(c, *input.CategoryID); err != nil {
		h.fail(c, err)
		return
	}

	files := uploadedFiles(c, "images")
	if len(files) > models.MaxImages {
		h.fail(c, apperror.Validation("a record can hold at most %d images", models.MaxImages))
		return
	}

	// 2. Defaults: cost price follows price, reorder at 5
	product := models.Product{MinStock: defaultMinStock, IsActive: true}
	input.Apply(&product)
	if input.CostPrice == nil {
		product.CostPrice = product.Price
	}

	// 3. Store the pictures, then the row
	paths, err := h.saveImages(c, productImageDir, files)
	if err != nil {
		h.fail(c, err)
		return
	}
	product.Images = paths

	if err := h.db.WithContext(c.Request.Context()).Create(&product).Error; err != nil {
		h.removeFiles(c, paths)
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, viewProduct(product), "Product created successfully")
}

// --- PUT: Partial update (multipart) ---
// existingImages lists the current pictures to keep; new files are appended.
func (h *Handler) UpdateProduct(c *gin.Context) {
	// 1. Get ID from URL (e.g., /products/5)
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	// 2. Find existing product
	ctx := c.Request.Context()
	var product models.Product
	if err := h.db.WithContext(ctx).First(&product, id).Error; err != nil {
		h.fail(c, err)
		return
	}

	// 3. Validate only what was sent
	input, err := productForm(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := input.Validate(); err != nil {
		h.fail(c, err)
		return
	}
	if input.CategoryID != nil {
		if err := h.requireCategory(c, *input.CategoryID); err != nil {
			h.fail(c, err)
			return
		}
	}

	f := newFormReader(c)
	keep := f.StringList("existingImages")
	if err := f.Err(); err != nil {
		h.fail(c, err)
		return
	}
	files := uploadedFiles(c, "images")
	images, dropped, err := reconcileImages(product.Images, keep, len(files))
	if err != nil {
		h.fail(c, err)
		return
	}

	// 4. Save new pictures and the row; old pictures go last
	added, err := h.saveImages(c, productImageDir, files)
	if err != nil {
		h.fail(c, err)
		return
	}
	input.Apply(&product)
	product.Images = append(images, added...)

	if err := h.db.WithContext(ctx).Save(&product).Error; err != nil {
		h.removeFiles(c, added)
		h.fail(c, err)
		return
	}
	h.removeFiles(c, dropped)

	respond(c, http.StatusOK, viewProduct(product), "Product updated successfully")
}

// --- DELETE: Retire a product ---
// Past sales keep pointing at it, so the row stays and is marked inactive.
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	var product models.Product
	if err := h.db.WithContext(ctx).First(&product, id).Error; err != nil {
		h.fail(c, err)
		return
	}
	if err := h.db.WithContext(ctx).Model(&product).Update("is_active", false).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Product deleted successfully")
}
