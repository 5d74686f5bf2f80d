package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"clinic-pos/internal/apperror"
)

// Partial updates carry one optional field per mutable attribute. A nil
// field is left untouched. Validate normalizes the fields that are present
// and must run before Apply.

func normalizeRequired(p *string, field string) (*string, error) {
	if p == nil {
		return nil, nil
	}
	v, err := requireText(*p, field)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func applyOptionalText(dst **string, src *string) {
	if src == nil {
		return
	}
	v := strings.TrimSpace(*src)
	if v == "" {
		*dst = nil
		return
	}
	*dst = &v
}

type CategoryUpdate struct {
	Name *string `json:"name"`
	Unit *string `json:"unit"`
}

func (u *CategoryUpdate) Validate() (err error) {
	if u.Name, err = normalizeRequired(u.Name, "name"); err != nil {
		return err
	}
	if u.Unit, err = normalizeRequired(u.Unit, "unit"); err != nil {
		return err
	}
	return nil
}

func (u CategoryUpdate) Apply(c *ProductCategory) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Unit != nil {
		c.Unit = *u.Unit
	}
}

type ServiceUpdate struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	IsActive    *bool            `json:"isActive"`
}

func (u *ServiceUpdate) Validate() (err error) {
	if u.Name, err = normalizeRequired(u.Name, "name"); err != nil {
		return err
	}
	if u.Price != nil && !u.Price.IsPositive() {
		return apperror.Validation("price must be greater than zero")
	}
	return nil
}

func (u ServiceUpdate) Apply(s *Service) {
	if u.Name != nil {
		s.Name = *u.Name
	}
	applyOptionalText(&s.Description, u.Description)
	if u.Price != nil {
		s.Price = *u.Price
	}
	if u.IsActive != nil {
		s.IsActive = *u.IsActive
	}
}

type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	CostPrice   *decimal.Decimal
	Stock       *int
	MinStock    *int
	CategoryID  *uint
}

func (u *ProductUpdate) Validate() (err error) {
	if u.Name, err = normalizeRequired(u.Name, "name"); err != nil {
		return err
	}
	if u.Price != nil && !u.Price.IsPositive() {
		return apperror.Validation("price must be greater than zero")
	}
	if u.CostPrice != nil && u.CostPrice.IsNegative() {
		return apperror.Validation("cost price cannot be negative")
	}
	if u.Stock != nil && *u.Stock < 0 {
		return apperror.Validation("stock cannot be negative")
	}
	if u.MinStock != nil && *u.MinStock < 0 {
		return apperror.Validation("minimum stock cannot be negative")
	}
	if u.CategoryID != nil && *u.CategoryID == 0 {
		return apperror.Validation("category is required")
	}
	return nil
}

func (u ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	applyOptionalText(&p.Description, u.Description)
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.CostPrice != nil {
		p.CostPrice = *u.CostPrice
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.MinStock != nil {
		p.MinStock = *u.MinStock
	}
	if u.CategoryID != nil {
		p.CategoryID = *u.CategoryID
	}
}

type PromotionUpdate struct {
	Name        *string
	Description *string
	Discount    *decimal.Decimal
	IsPercent   *bool
	StartDate   *time.Time
	EndDate     *time.Time
	IsActive    *bool
}

func (u *PromotionUpdate) Validate() (err error) {
	if u.Name, err = normalizeRequired(u.Name, "name"); err != nil {
		return err
	}
	if u.Discount != nil && !u.Discount.IsPositive() {
		return apperror.Validation("discount must be greater than zero")
	}
	return nil
}

func (u PromotionUpdate) Apply(p *Promotion) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	applyOptionalText(&p.Description, u.Description)
	if u.Discount != nil {
		p.Discount = *u.Discount
	}
	if u.IsPercent != nil {
		p.IsPercent = *u.IsPercent
	}
	if u.StartDate != nil {
		p.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		p.EndDate = *u.EndDate
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
}

// CheckPromotion validates the rules that span several promotion fields.
func CheckPromotion(p Promotion) error {
	if p.EndDate.Before(p.StartDate) {
		return apperror.Validation("end date must not be before start date")
	}
	if p.IsPercent && p.Discount.GreaterThan(decimal.NewFromInt(100)) {
		return apperror.Validation("percentage discount cannot exceed 100")
	}
	return nil
}

type CustomerUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Age       *int
	Province  *string
	District  *string
	Village   *string
}

func (u *CustomerUpdate) Validate() (err error) {
	if u.FirstName, err = normalizeRequired(u.FirstName, "first name"); err != nil {
		return err
	}
	if u.LastName, err = normalizeRequired(u.LastName, "last name"); err != nil {
		return err
	}
	if u.Phone != nil {
		phone, err := NormalizePhone(*u.Phone)
		if err != nil {
			return err
		}
		u.Phone = &phone
	}
	if u.Age != nil && (*u.Age < 0 || *u.Age > 150) {
		return apperror.Validation("age must be between 0 and 150")
	}
	if u.Province, err = normalizeRequired(u.Province, "province"); err != nil {
		return err
	}
	if u.District, err = normalizeRequired(u.District, "district"); err != nil {
		return err
	}
	if u.Village, err = normalizeRequired(u.Village, "village"); err != nil {
		return err
	}
	return nil
}

func (u CustomerUpdate) Apply(c *Customer) {
	if u.FirstName != nil {
		c.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		c.LastName = *u.LastName
	}
	if u.Phone != nil {
		c.Phone = *u.Phone
	}
	if u.Age != nil {
		age := *u.Age
		c.Age = &age
	}
	if u.Province != nil {
		c.Province = *u.Province
	}
	if u.District != nil {
		c.District = *u.District
	}
	if u.Village != nil {
		c.Village = *u.Village
	}
}

// MinPasswordLength applies to new and changed passwords.
const MinPasswordLength = 6

type UserUpdate struct {
	Username *string `json:"username"`
	Name     *string `json:"name"`
	Role     *Role   `json:"role"`
	IsActive *bool   `json:"isActive"`
	Password *string `json:"password"`
}

func (u *UserUpdate) Validate() (err error) {
	if u.Username, err = normalizeRequired(u.Username, "username"); err != nil {
		return err
	}
	if u.Name, err = normalizeRequired(u.Name, "name"); err != nil {
		return err
	}
	if u.Role != nil && !u.Role.Valid() {
		return apperror.Validation("role must be ADMIN or EMPLOYEE")
	}
	if u.Password != nil && len(*u.Password) < MinPasswordLength {
		return apperror.Validation("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// Apply merges everything except the password, which the caller hashes.
func (u UserUpdate) Apply(usr *User) {
	if u.Username != nil {
		usr.Username = *u.Username
	}
	if u.Name != nil {
		usr.Name = *u.Name
	}
	if u.Role != nil {
		usr.Role = *u.Role
	}
	if u.IsActive != nil {
		usr.IsActive = *u.IsActive
	}
}

// SaleUpdate covers the only fields of a sale that change after checkout.
type SaleUpdate struct {
	Status *SaleStatus `json:"status"`
	Notes  *string     `json:"notes"`
}

func (u *SaleUpdate) Validate() error {
	if u.Status != nil && !u.Status.Valid() {
		return apperror.Validation("status must be PAID, UNPAID or TRANSFER")
	}
	return nil
}

func (u SaleUpdate) Apply(s *Sale) {
	if u.Status != nil {
		s.Status = *u.Status
	}
	applyOptionalText(&s.Notes, u.Notes)
}
