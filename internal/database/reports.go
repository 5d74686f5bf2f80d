package database

import (
	"context"
	"time"

	"clinic-pos/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Scope narrows a query, e.g. a visibility rule or a date window.
type Scope = func(*gorm.DB) *gorm.DB

// SalesTotal holds the revenue and number of sales behind an aggregate.
type SalesTotal struct {
	Revenue decimal.Decimal
	Count   int64
}

// Between limits sales to created_at inside [start, end].
func Between(start, end time.Time) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("sales.created_at BETWEEN ? AND ?", start, end)
	}
}

// WithStatus limits sales to the given payment states.
func WithStatus(statuses ...models.SaleStatus) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if len(statuses) == 1 {
			return db.Where("sales.status = ?", statuses[0])
		}
		return db.Where("sales.status IN ?", statuses)
	}
}

// SumSales totals sales matching the scopes.
// COALESCE turns the empty-set NULL into zero.
func SumSales(ctx context.Context, db *gorm.DB, scopes ...Scope) (SalesTotal, error) {
	var out SalesTotal
	row := db.WithContext(ctx).
		Model(&models.Sale{}).
		Scopes(scopes...).
		Select("COALESCE(SUM(sales.total), 0), COUNT(*)").
		Row()
	if err := row.Scan(&out.Revenue, &out.Count); err != nil {
		return SalesTotal{}, err
	}
	return out, nil
}

// CountSales counts sales matching the scopes, whatever their status.
func CountSales(ctx context.Context, db *gorm.DB, scopes ...Scope) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&models.Sale{}).Scopes(scopes...).Count(&n).Error
	return n, err
}
