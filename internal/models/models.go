package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money goes out as plain JSON numbers, never quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Role - what a staff account may do
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// SaleStatus - payment state of a sale
type SaleStatus string

const (
	StatusPaid     SaleStatus = "PAID"
	StatusUnpaid   SaleStatus = "UNPAID"
	StatusTransfer SaleStatus = "TRANSFER"
)

func (s SaleStatus) Valid() bool {
	return s == StatusPaid || s == StatusUnpaid || s == StatusTransfer
}

// CountedStatuses are the payment states that count as collected revenue.
var CountedStatuses = []SaleStatus{StatusPaid, StatusTransfer}

// User - a staff account (admin or employee)
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"` // Never return this in JSON
	Name         string    `gorm:"size:100" json:"name"`
	Role         Role      `gorm:"size:20;not null;index" json:"role"`
	IsActive     bool      `gorm:"not null" json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Customer - a patient/buyer, identified by phone
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FirstName string    `gorm:"size:100;not null" json:"firstName"`
	LastName  string    `gorm:"size:100;not null" json:"lastName"`
	Phone     string    `gorm:"size:20;uniqueIndex;not null" json:"phone"`
	Age       *int      `json:"age"`
	Province  string    `gorm:"size:100" json:"province"`
	District  string    `gorm:"size:100" json:"district"`
	Village   string    `gorm:"size:100" json:"village"`
	Image     *string   `gorm:"size:255" json:"image"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Sales     []Sale    `gorm:"foreignKey:CustomerID" json:"sales,omitempty"`
}

// ProductCategory - groups products and names their counting unit
type ProductCategory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Unit      string    `gorm:"size:50;not null" json:"unit"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Product - the inventory
type Product struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Name        string           `gorm:"size:200;not null;index" json:"name"`
	Description *string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
	CostPrice   decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"costPrice"`
	Stock       int              `gorm:"not null" json:"stock"`
	MinStock    int              `gorm:"not null" json:"minStock"`
	CategoryID  uint             `gorm:"not null;index" json:"categoryId"`
	Category    *ProductCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Images      ImageList        `gorm:"type:text" json:"images"`
	IsActive    bool             `gorm:"not null;index" json:"isActive"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// IsLowStock is true at or below the reorder threshold.
func (p Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

// Service - a billable clinic service (consultation, injection, ...)
type Service struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:200;not null" json:"name"`
	Description *string         `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	IsActive    bool            `gorm:"not null;index" json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Promotion - a fixed or percentage discount valid between two dates
type Promotion struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:200;not null" json:"name"`
	Description *string         `gorm:"type:text" json:"description"`
	Discount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	IsPercent   bool            `gorm:"not null" json:"isPercent"`
	StartDate   time.Time       `gorm:"not null;index" json:"startDate"`
	EndDate     time.Time       `gorm:"not null;index" json:"endDate"`
	IsActive    bool            `gorm:"not null;index" json:"isActive"`
	Images      ImageList       `gorm:"type:text" json:"images"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Applicable reports whether the promotion is switched on and now lies inside its window.
func (p Promotion) Applicable(now time.Time) bool {
	return p.IsActive && !now.Before(p.StartDate) && !now.After(p.EndDate)
}

// DiscountFor computes the discount on subtotal, never more than the subtotal itself.
func (p Promotion) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	d := p.Discount
	if p.IsPercent {
		d = subtotal.Mul(p.Discount).Div(decimal.NewFromInt(100)).Round(2)
	}
	if d.GreaterThan(subtotal) {
		return subtotal
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Sale - the transaction header
type Sale struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	InvoiceNumber string          `gorm:"uniqueIndex;size:40;not null" json:"invoiceNumber"`
	CustomerID    uint            `gorm:"not null;index" json:"customerId"`
	Customer      *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	UserID        uint            `gorm:"not null;index" json:"userId"` // Who processed it
	User          *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PromotionID   *uint           `gorm:"index" json:"promotionId"`
	Promotion     *Promotion      `gorm:"foreignKey:PromotionID" json:"promotion,omitempty"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Discount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Status        SaleStatus      `gorm:"size:20;not null;index" json:"status"`
	Notes         *string         `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Items         []SaleItem      `gorm:"foreignKey:SaleID" json:"items,omitempty"`
}

// SaleItem - one line of a sale; exactly one of ProductID/ServiceID is set
type SaleItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SaleID    uint            `gorm:"not null;index" json:"saleId"`
	ProductID *uint           `gorm:"index" json:"productId"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	ServiceID *uint           `gorm:"index" json:"serviceId"`
	Service   *Service        `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"` // Snapshot of price at time of sale
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
}

// All lists every entity for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Customer{},
		&ProductCategory{},
		&Product{},
		&Service{},
		&Promotion{},
		&Sale{},
		&SaleItem{},
	}
}
