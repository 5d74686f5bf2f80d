// Package visibility decides which sales and customers an employee may see.
//
// Once the first admin (lowest id) has recorded a sale, employees lose sight
// of every sale that admin made and of every customer those sales touched.
// Before that, employees see everything.
package visibility

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"clinic-pos/internal/auth"
	"clinic-pos/internal/models"

	"gorm.io/gorm"
)

// Rules is the admin snapshot a request is filtered against.
type Rules struct {
	AdminID          uint
	AdminHasSales    bool
	AdminCustomerIDs []uint
}

// Load resolves the ruleset from the current database state.
func Load(ctx context.Context, db *gorm.DB) (Rules, error) {
	var admin models.User
	err := db.WithContext(ctx).
		Where("role = ?", models.RoleAdmin).
		Order("id ASC").
		Take(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Rules{}, nil
	}
	if err != nil {
		return Rules{}, fmt.Errorf("find first admin: %w", err)
	}

	var customerIDs []uint
	err = db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("user_id = ?", admin.ID).
		Distinct().
		Order("customer_id").
		Pluck("customer_id", &customerIDs).Error
	if err != nil {
		return Rules{}, fmt.Errorf("load admin customers: %w", err)
	}

	// Every sale has a customer, so an empty set means no admin sales.
	return Rules{
		AdminID:          admin.ID,
		AdminHasSales:    len(customerIDs) > 0,
		AdminCustomerIDs: customerIDs,
	}, nil
}

// Restricts reports whether p is subject to filtering under these rules.
func (r Rules) Restricts(p auth.Principal) bool {
	return !p.IsAdmin() && r.AdminHasSales
}

// Sales returns a scope hiding the admin's sales from a restricted caller.
func (r Rules) Sales(p auth.Principal) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !r.Restricts(p) {
			return db
		}
		return db.Where("sales.user_id <> ?", r.AdminID)
	}
}

// Customers returns a scope hiding customers the admin has sold to.
func (r Rules) Customers(p auth.Principal) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !r.Restricts(p) || len(r.AdminCustomerIDs) == 0 {
			return db
		}
		return db.Where("customers.id NOT IN ?", r.AdminCustomerIDs)
	}
}

// AllowsSale guards single-sale reads and updates.
func (r Rules) AllowsSale(p auth.Principal, sale models.Sale) bool {
	return !r.Restricts(p) || sale.UserID != r.AdminID
}

// AllowsCustomer guards single-customer reads and updates.
func (r Rules) AllowsCustomer(p auth.Principal, customerID uint) bool {
	return !r.Restricts(p) || !slices.Contains(r.AdminCustomerIDs, customerID)
}
