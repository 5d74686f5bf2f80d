package reporting

import (
	"context"
	"strings"
	"time"

	"clinic-pos/internal/apperror"
	"clinic-pos/internal/database"
	"clinic-pos/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service answers reporting questions against the sales and inventory tables.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// RevenueQuery describes one revenue report request.
type RevenueQuery struct {
	Start    time.Time
	End      time.Time
	Statuses []models.SaleStatus
	Period   Period
}

// Bucket is one row of a revenue report.
type Bucket struct {
	Period  string          `json:"period"`
	Revenue decimal.Decimal `json:"revenue"`
	Count   int64           `json:"count"`
}

type Summary struct {
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	TotalCount   int64           `json:"totalCount"`
	AvgPerSale   decimal.Decimal `json:"avgPerSale"`
}

type RevenueReport struct {
	Report  []Bucket `json:"report"`
	Summary Summary  `json:"summary"`
}

const dateLayout = "2006-01-02"

// ParseRevenueQuery reads the raw query parameters. Missing dates default to
// the last 30 days ending today.
func ParseRevenueQuery(start, end, status, period string, now time.Time) (RevenueQuery, error) {
	q := RevenueQuery{
		Start:  now.AddDate(0, 0, -30),
		End:    now,
		Period: ParsePeriod(period),
	}

	var err error
	if strings.TrimSpace(start) != "" {
		if q.Start, err = parseDate(start); err != nil {
			return RevenueQuery{}, apperror.Validation("invalid startDate %q", start)
		}
	}
	if strings.TrimSpace(end) != "" {
		if q.End, err = parseDate(end); err != nil {
			return RevenueQuery{}, apperror.Validation("invalid endDate %q", end)
		}
	}
	q.End = EndOfDay(q.End)

	if q.Statuses, err = ParseStatus(status); err != nil {
		return RevenueQuery{}, err
	}
	return q, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.Local(), nil
}

// Revenue totals the matching sales and groups them into period buckets.
func (s *Service) Revenue(ctx context.Context, q RevenueQuery) (RevenueReport, error) {
	var sales []models.Sale
	err := s.db.WithContext(ctx).
		Scopes(database.Between(q.Start, EndOfDay(q.End)), database.WithStatus(q.Statuses...)).
		Select("id", "total", "status", "created_at").
		Order("created_at ASC").
		Find(&sales).Error
	if err != nil {
		return RevenueReport{}, err
	}
	return Aggregate(sales, q.Period), nil
}

// Aggregate buckets sales in the order given. Callers pass them sorted by
// createdAt so buckets come out in first-seen order.
func Aggregate(sales []models.Sale, p Period) RevenueReport {
	out := RevenueReport{Report: []Bucket{}}
	index := make(map[string]int)
	total := decimal.Zero

	for _, sale := range sales {
		key := BucketKey(sale.CreatedAt, p)
		i, ok := index[key]
		if !ok {
			i = len(out.Report)
			index[key] = i
			out.Report = append(out.Report, Bucket{Period: key, Revenue: decimal.Zero})
		}
		out.Report[i].Revenue = out.Report[i].Revenue.Add(sale.Total)
		out.Report[i].Count++
		total = total.Add(sale.Total)
	}

	out.Summary = Summary{
		TotalRevenue: total,
		TotalCount:   int64(len(sales)),
		AvgPerSale:   decimal.Zero,
	}
	if len(sales) > 0 {
		out.Summary.AvgPerSale = total.Div(decimal.NewFromInt(int64(len(sales)))).Round(2)
	}
	return out
}
