package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"clinic-pos/internal/apperror"
	"clinic-pos/internal/auth"
	"clinic-pos/internal/database"
	"clinic-pos/internal/middleware"
	"clinic-pos/internal/models"
	"clinic-pos/internal/reporting"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleItemRequest is one cart line. Exactly one of ProductID and ServiceID is set.
type SaleItemRequest struct {
	ProductID *uint `json:"productId"`
	ServiceID *uint `json:"serviceId"`
	Quantity  int   `json:"quantity"`
}

// SaleRequest defines what the counter sends at checkout
type SaleRequest struct {
	CustomerID  uint               `json:"customerId"`
	Items       []SaleItemRequest  `json:"items"`
	PromotionID *uint              `json:"promotionId"`
	Discount    *decimal.Decimal   `json:"discount"`
	Status      *models.SaleStatus `json:"status"`
	Notes       *string            `json:"notes"`
}

func (r SaleRequest) validate() error {
	if r.CustomerID == 0 {
		return apperror.Validation("customer is required")
	}
	if len(r.Items) == 0 {
		return apperror.Validation("a sale needs at least one item")
	}
	for i, it := range r.Items {
		if (it.ProductID == nil) == (it.ServiceID == nil) {
			return apperror.Validation("item %d must reference either a product or a service", i+1)
		}
		if it.Quantity < 1 {
			return apperror.Validation("item %d quantity must be at least 1", i+1)
		}
	}
	if r.Status != nil && !r.Status.Valid() {
		return apperror.Validation("status must be PAID, UNPAID or TRANSFER")
	}
	if r.Discount != nil && r.Discount.IsNegative() {
		return apperror.Validation("discount cannot be negative")
	}
	return nil
}

// newInvoiceNumber returns INV-YYYYMMDD-XXXXXX.
func newInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), suffix)
}

func preloadSale(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Customer").
		Preload("User").
		Preload("Promotion").
		Preload("Items.Product.Category").
		Preload("Items.Service")
}

// GET /api/sales
// Employees only ever see today's sales, on top of the visibility rules.
func (h *Handler) ListSales(c *gin.Context) {
	pg := parsePage(c)
	p := principal(c)
	ctx := c.Request.Context()

	q := h.db.WithContext(ctx).Model(&models.Sale{}).Scopes(middleware.Rules(c).Sales(p))
	if !p.IsAdmin() {
		today := reporting.DayWindow(time.Now())
		q = q.Scopes(database.Between(today.Start, today.End))
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + search + "%"
		customers := h.db.Model(&models.Customer{}).
			Select("id").
			Where("first_name LIKE ? OR last_name LIKE ? OR phone LIKE ?", like, like, like)
		q = q.Where("sales.invoice_number LIKE ? OR sales.customer_id IN (?)", like, customers)
	}
	if status := strings.ToUpper(strings.TrimSpace(c.Query("status"))); status != "" {
		if !models.SaleStatus(status).Valid() {
			h.fail(c, apperror.Validation("status must be PAID, UNPAID or TRANSFER"))
			return
		}
		q = q.Where("sales.status = ?", status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		h.fail(c, err)
		return
	}

	var sales []models.Sale
	err := q.Scopes(preloadSale).
		Order("sales.created_at DESC").
		Offset(pg.Offset()).
		Limit(pg.Limit).
		Find(&sales).Error
	if err != nil {
		h.fail(c, err)
		return
	}
	respondList(c, sales, pg.Of(total))
}

// findVisibleSale loads a sale and checks the caller may see it.
func (h *Handler) findVisibleSale(c *gin.Context, id uint, scopes ...func(*gorm.DB) *gorm.DB) (models.Sale, error) {
	var sale models.Sale
	if err := h.db.WithContext(c.Request.Context()).Scopes(scopes...).First(&sale, id).Error; err != nil {
		return models.Sale{}, err
	}
	if !middleware.Rules(c).AllowsSale(principal(c), sale) {
		return models.Sale{}, apperror.Forbidden("you do not have access to this sale")
	}
	return sale, nil
}

// GET /api/sales/:id
func (h *Handler) GetSale(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	sale, err := h.findVisibleSale(c, id, preloadSale)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, sale, "")
}

// POST /api/sales
func (h *Handler) CreateSale(c *gin.Context) {
	var req SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperror.Validation("invalid request body"))
		return
	}
	if err := req.validate(); err != nil {
		h.fail(c, err)
		return
	}

	// 1. Start a Database Transaction
	ctx := c.Request.Context()
	tx := h.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		h.fail(c, tx.Error)
		return
	}

	sale, err := checkout(tx, principal(c), req, time.Now())
	if err != nil {
		tx.Rollback()
		h.fail(c, err)
		return
	}

	// 2. Commit Transaction
	if err := tx.Commit().Error; err != nil {
		h.fail(c, err)
		return
	}

	var created models.Sale
	if err := h.db.WithContext(ctx).Scopes(preloadSale).First(&created, sale.ID).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, created, "Sale completed successfully")
}

// checkout prices the cart, takes products out of stock and records the
// sale. Everything happens on tx; the caller commits or rolls back.
func checkout(tx *gorm.DB, p auth.Principal, req SaleRequest, now time.Time) (models.Sale, error) {
	var customer models.Customer
	if err := tx.Select("id").First(&customer, req.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Sale{}, apperror.Validation("customer %d does not exist", req.CustomerID)
		}
		return models.Sale{}, err
	}

	subtotal := decimal.Zero
	items := make([]models.SaleItem, 0, len(req.Items))

	for _, it := range req.Items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		line := models.SaleItem{Quantity: it.Quantity}

		if it.ProductID != nil {
			// Lock the row so two counters cannot sell the same stock
			var product models.Product
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("is_active = ?", true).
				First(&product, *it.ProductID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.Sale{}, apperror.Validation("product %d not found", *it.ProductID)
			}
			if err != nil {
				return models.Sale{}, err
			}
			if product.Stock < it.Quantity {
				return models.Sale{}, apperror.Validation("insufficient stock for %s (%d left)", product.Name, product.Stock)
			}
			if err := tx.Model(&product).Update("stock", product.Stock-it.Quantity).Error; err != nil {
				return models.Sale{}, err
			}
			line.ProductID = &product.ID
			line.Price = product.Price
		} else {
			var service models.Service
			err := tx.Where("is_active = ?", true).First(&service, *it.ServiceID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.Sale{}, apperror.Validation("service %d not found", *it.ServiceID)
			}
			if err != nil {
				return models.Sale{}, err
			}
			line.ServiceID = &service.ID
			line.Price = service.Price
		}

		line.Total = line.Price.Mul(qty)
		subtotal = subtotal.Add(line.Total)
		items = append(items, line)
	}

	// A promotion sets the discount; otherwise take the manual one.
	discount := decimal.Zero
	if req.PromotionID != nil {
		var promo models.Promotion
		if err := tx.First(&promo, *req.PromotionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.Sale{}, apperror.Validation("promotion %d not found", *req.PromotionID)
			}
			return models.Sale{}, err
		}
		if !promo.Applicable(now) {
			return models.Sale{}, apperror.Validation("promotion %q is not running", promo.Name)
		}
		discount = promo.DiscountFor(subtotal)
	} else if req.Discount != nil {
		discount = decimal.Min(*req.Discount, subtotal)
	}

	status := models.StatusPaid
	if req.Status != nil {
		status = *req.Status
	}

	sale := models.Sale{
		InvoiceNumber: newInvoiceNumber(now),
		CustomerID:    customer.ID,
		UserID:        p.ID,
		PromotionID:   req.PromotionID,
		Subtotal:      subtotal,
		Discount:      discount,
		Total:         subtotal.Sub(discount),
		Status:        status,
		Items:         items, // GORM inserts these with the header
	}
	if req.Notes != nil {
		if n := strings.TrimSpace(*req.Notes); n != "" {
			sale.Notes = &n
		}
	}
	if err := tx.Create(&sale).Error; err != nil {
		return models.Sale{}, err
	}
	return sale, nil
}

// PUT /api/sales/:id
// Only the payment status and notes change after checkout.
func (h *Handler) UpdateSale(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var input models.SaleUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, apperror.Validation("invalid input"))
		return
	}
	if err := input.Validate(); err != nil {
		h.fail(c, err)
		return
	}

	sale, err := h.findVisibleSale(c, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	input.Apply(&sale)

	ctx := c.Request.Context()
	err = h.db.WithContext(ctx).
		Model(&sale).
		Select("status", "notes").
		Updates(map[string]any{"status": sale.Status, "notes": sale.Notes}).Error
	if err != nil {
		h.fail(c, err)
		return
	}
	var updated models.Sale
	if err := h.db.WithContext(ctx).Scopes(preloadSale).First(&updated, id).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, updated, "Sale updated successfully")
}
