package reporting

import (
	"context"

	"clinic-pos/internal/auth"
	"clinic-pos/internal/database"
	"clinic-pos/internal/models"
	"clinic-pos/internal/visibility"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DashboardStats are the headline figures on the home screen.
type DashboardStats struct {
	TotalSales       int64           `json:"totalSales"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	TotalCustomers   int64           `json:"totalCustomers"`
	LowStockProducts int64           `json:"lowStockProducts"`
	TodayRevenue     decimal.Decimal `json:"todayRevenue"`
	WeekRevenue      decimal.Decimal `json:"weekRevenue"`
	MonthRevenue     decimal.Decimal `json:"monthRevenue"`
}

// Dashboard assembles the stats visible to p. Each figure is its own query
// and they run concurrently.
func (s *Service) Dashboard(ctx context.Context, rules visibility.Rules, p auth.Principal) (DashboardStats, error) {
	now := s.now()
	salesScope := rules.Sales(p)
	counted := database.WithStatus(models.CountedStatuses...)

	var out DashboardStats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		out.TotalSales, err = database.CountSales(ctx, s.db, salesScope)
		return err
	})
	g.Go(func() error {
		t, err := database.SumSales(ctx, s.db, salesScope, counted)
		out.TotalRevenue = t.Revenue
		return err
	})
	g.Go(func() error {
		return s.db.WithContext(ctx).
			Model(&models.Customer{}).
			Scopes(rules.Customers(p)).
			Count(&out.TotalCustomers).Error
	})
	g.Go(func() (err error) {
		out.LowStockProducts, err = s.LowStockCount(ctx)
		return err
	})

	windows := []struct {
		w   Window
		dst *decimal.Decimal
	}{
		{DayWindow(now), &out.TodayRevenue},
		{WeekWindow(now), &out.WeekRevenue},
		{MonthWindow(now), &out.MonthRevenue},
	}
	for _, win := range windows {
		g.Go(func() error {
			t, err := database.SumSales(ctx, s.db, salesScope, counted, database.Between(win.w.Start, win.w.End))
			*win.dst = t.Revenue
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return DashboardStats{}, err
	}
	return out, nil
}
