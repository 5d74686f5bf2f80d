package reporting

import (
	"context"
	"testing"
	"time"

	"clinic-pos/internal/auth"
	"clinic-pos/internal/database"
	"clinic-pos/internal/models"
	"clinic-pos/internal/visibility"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type fixture struct {
	db       *gorm.DB
	admin    models.User
	employee models.User
	customer models.Customer
}

func newFixture(t *testing.T) fixture {
	db := openDB(t)
	f := fixture{db: db}
	f.admin = models.User{Username: "admin", Name: "Admin", PasswordHash: "x", Role: models.RoleAdmin, IsActive: true}
	f.employee = models.User{Username: "emp", Name: "Emp", PasswordHash: "x", Role: models.RoleEmployee, IsActive: true}
	require.NoError(t, db.Create(&f.admin).Error)
	require.NoError(t, db.Create(&f.employee).Error)
	f.customer = models.Customer{FirstName: "Noy", LastName: "K", Phone: "02012345678"}
	require.NoError(t, db.Create(&f.customer).Error)
	return f
}

func (f fixture) sale(t *testing.T, userID, customerID uint, total int64, status models.SaleStatus, at time.Time) {
	t.Helper()
	s := models.Sale{
		InvoiceNumber: uuid.NewString(),
		CustomerID:    customerID,
		UserID:        userID,
		Subtotal:      decimal.NewFromInt(total),
		Discount:      decimal.Zero,
		Total:         decimal.NewFromInt(total),
		Status:        status,
		CreatedAt:     at,
	}
	require.NoError(t, f.db.Create(&s).Error)
}

func TestRevenueExcludesUnpaidUnderAll(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.sale(t, f.employee.ID, f.customer.ID, 100, models.StatusUnpaid, now)
	f.sale(t, f.employee.ID, f.customer.ID, 50, models.StatusPaid, now)

	q, err := ParseRevenueQuery("", "", "ALL", "daily", now)
	require.NoError(t, err)
	report, err := NewService(f.db).Revenue(context.Background(), q)
	require.NoError(t, err)

	require.Len(t, report.Report, 1)
	assert.Equal(t, BucketKey(now, Daily), report.Report[0].Period)
	assert.True(t, report.Report[0].Revenue.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, int64(1), report.Report[0].Count)
	assert.True(t, report.Summary.TotalRevenue.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, int64(1), report.Summary.TotalCount)
	assert.True(t, report.Summary.AvgPerSale.Equal(decimal.NewFromInt(50)))

	// A named status is used verbatim, UNPAID included.
	q.Statuses = []models.SaleStatus{models.StatusUnpaid}
	report, err = NewService(f.db).Revenue(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, report.Summary.TotalRevenue.Equal(decimal.NewFromInt(100)))
}

func TestRevenueRangeAndBuckets(t *testing.T) {
	f := newFixture(t)
	jan := local(2026, time.January, 5, 9)
	f.sale(t, f.employee.ID, f.customer.ID, 10, models.StatusPaid, jan)
	f.sale(t, f.employee.ID, f.customer.ID, 20, models.StatusTransfer, jan.Add(2*time.Hour))
	// Last moment of the end date still counts.
	f.sale(t, f.employee.ID, f.customer.ID, 30, models.StatusPaid, EndOfDay(local(2026, time.February, 28, 0)).Add(-time.Second))
	f.sale(t, f.employee.ID, f.customer.ID, 40, models.StatusPaid, local(2026, time.March, 1, 0))

	q, err := ParseRevenueQuery("2026-01-01", "2026-02-28", "ALL", "monthly", time.Now())
	require.NoError(t, err)
	report, err := NewService(f.db).Revenue(context.Background(), q)
	require.NoError(t, err)

	require.Len(t, report.Report, 2)
	assert.Equal(t, "2026-01", report.Report[0].Period)
	assert.True(t, report.Report[0].Revenue.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, int64(2), report.Report[0].Count)
	assert.Equal(t, "2026-02", report.Report[1].Period)
	assert.True(t, report.Summary.TotalRevenue.Equal(decimal.NewFromInt(60)))
	assert.True(t, report.Summary.AvgPerSale.Equal(decimal.NewFromInt(20)))
}

func TestAggregateEmpty(t *testing.T) {
	r := Aggregate(nil, Weekly)
	assert.Empty(t, r.Report)
	assert.NotNil(t, r.Report)
	assert.True(t, r.Summary.AvgPerSale.IsZero())
	assert.Equal(t, int64(0), r.Summary.TotalCount)
}

func TestDashboardVisibility(t *testing.T) {
	f := newFixture(t)
	other := models.Customer{FirstName: "Vong", LastName: "S", Phone: "02087654321"}
	require.NoError(t, f.db.Create(&other).Error)

	now := time.Now()
	f.sale(t, f.admin.ID, f.customer.ID, 100, models.StatusPaid, now)
	f.sale(t, f.employee.ID, other.ID, 40, models.StatusTransfer, now)
	f.sale(t, f.employee.ID, other.ID, 25, models.StatusUnpaid, now)
	f.sale(t, f.employee.ID, other.ID, 7, models.StatusPaid, now.AddDate(-1, 0, 0))

	seedProducts(t, f.db)
	svc := NewService(f.db)
	rules, err := visibility.Load(context.Background(), f.db)
	require.NoError(t, err)

	admin, err := svc.Dashboard(context.Background(), rules, auth.Principal{ID: f.admin.ID, Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, int64(4), admin.TotalSales)
	assert.True(t, admin.TotalRevenue.Equal(decimal.NewFromInt(147)))
	assert.True(t, admin.TodayRevenue.Equal(decimal.NewFromInt(140)))
	assert.True(t, admin.MonthRevenue.Equal(decimal.NewFromInt(140)))
	assert.Equal(t, int64(2), admin.TotalCustomers)
	assert.Equal(t, int64(1), admin.LowStockProducts)

	emp, err := svc.Dashboard(context.Background(), rules, auth.Principal{ID: f.employee.ID, Role: models.RoleEmployee})
	require.NoError(t, err)
	assert.Equal(t, int64(3), emp.TotalSales)
	assert.True(t, emp.TotalRevenue.Equal(decimal.NewFromInt(47)))
	assert.True(t, emp.TodayRevenue.Equal(decimal.NewFromInt(40)))
	assert.True(t, emp.WeekRevenue.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, int64(1), emp.TotalCustomers)
}

func seedProducts(t *testing.T, db *gorm.DB) models.ProductCategory {
	t.Helper()
	cat := models.ProductCategory{Name: "Tablets", Unit: "box"}
	require.NoError(t, db.Create(&cat).Error)
	products := []models.Product{
		{Name: "Amoxicillin", Price: decimal.NewFromInt(20), CostPrice: decimal.NewFromInt(12), Stock: 5, MinStock: 5, CategoryID: cat.ID, IsActive: true},
		{Name: "Paracetamol", Price: decimal.NewFromInt(5), CostPrice: decimal.NewFromInt(3), Stock: 6, MinStock: 5, CategoryID: cat.ID, IsActive: true},
		{Name: "Retired", Price: decimal.NewFromInt(5), CostPrice: decimal.NewFromInt(2), Stock: 0, MinStock: 5, CategoryID: cat.ID, IsActive: false},
	}
	require.NoError(t, db.Create(&products).Error)
	return cat
}

func TestLowStock(t *testing.T) {
	db := openDB(t)
	seedProducts(t, db)
	svc := NewService(db)

	low, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Amoxicillin", low[0].Name)
	require.NotNil(t, low[0].Category)
	assert.Equal(t, "Tablets", low[0].Category.Name)

	n, err := svc.LowStockCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStockValuation(t *testing.T) {
	db := openDB(t)
	seedProducts(t, db)

	v, err := NewService(db).StockValuation(context.Background())
	require.NoError(t, err)
	require.Len(t, v.Categories, 1)
	group := v.Categories[0]
	assert.Equal(t, "Tablets", group.CategoryName)
	require.Len(t, group.Items, 2)
	// 5 x 12 + 6 x 3
	assert.True(t, group.Subtotal.Equal(decimal.NewFromInt(78)), group.Subtotal.String())
	assert.True(t, v.GrandTotal.Equal(decimal.NewFromInt(78)))
}

func TestValueGroupsAndSorts(t *testing.T) {
	v := Value([]models.Product{
		{Name: "Syrup", Stock: 2, CostPrice: decimal.RequireFromString("1.25"), Category: &models.ProductCategory{Name: "Liquids"}},
		{Name: "Gauze", Stock: 4, CostPrice: decimal.NewFromInt(2)},
		{Name: "Drops", Stock: 1, CostPrice: decimal.NewFromInt(3), Category: &models.ProductCategory{Name: "Liquids"}},
	})
	require.Len(t, v.Categories, 2)
	assert.Equal(t, "Liquids", v.Categories[0].CategoryName)
	assert.Equal(t, "Uncategorized", v.Categories[1].CategoryName)
	assert.True(t, v.Categories[0].Subtotal.Equal(decimal.RequireFromString("5.5")))
	assert.True(t, v.GrandTotal.Equal(decimal.RequireFromString("13.5")))
}
