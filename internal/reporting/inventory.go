package reporting

import (
	"context"
	"sort"

	"clinic-pos/internal/models"

	"github.com/shopspring/decimal"
)

// ValuationItem is one product line of the stock valuation.
type ValuationItem struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Unit      string          `json:"unit"`
	CostPrice decimal.Decimal `json:"costPrice"`
	TotalCost decimal.Decimal `json:"totalCost"`
}

// CategoryGroup is every valued product of one category.
type CategoryGroup struct {
	CategoryName string          `json:"categoryName"`
	Items        []ValuationItem `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type Valuation struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

const uncategorized = "Uncategorized"

// StockValuation prices the stock on hand of every active product at cost.
func (s *Service) StockValuation(ctx context.Context) (Valuation, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		return Valuation{}, err
	}
	return Value(products), nil
}

// Value groups products by category name and sums stock × cost price.
func Value(products []models.Product) Valuation {
	grand := decimal.Zero
	groups := make(map[string]*CategoryGroup)

	for _, p := range products {
		name, unit := uncategorized, ""
		if p.Category != nil {
			name, unit = p.Category.Name, p.Category.Unit
		}

		g, ok := groups[name]
		if !ok {
			g = &CategoryGroup{CategoryName: name, Items: []ValuationItem{}, Subtotal: decimal.Zero}
			groups[name] = g
		}

		line := p.CostPrice.Mul(decimal.NewFromInt(int64(p.Stock)))
		g.Items = append(g.Items, ValuationItem{
			ID:        p.ID,
			Name:      p.Name,
			Quantity:  p.Stock,
			Unit:      unit,
			CostPrice: p.CostPrice,
			TotalCost: line,
		})
		g.Subtotal = g.Subtotal.Add(line)
		grand = grand.Add(line)
	}

	out := Valuation{Categories: make([]CategoryGroup, 0, len(groups)), GrandTotal: grand}
	for _, g := range groups {
		out.Categories = append(out.Categories, *g)
	}
	// Map iteration is random; keep the report stable.
	sort.Slice(out.Categories, func(i, j int) bool {
		return out.Categories[i].CategoryName < out.Categories[j].CategoryName
	})
	return out
}


// LowStock lists active products at or below their reorder threshold,
// emptiest first.
func (s *Service) LowStock(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Preload("Category").
		Where("is_active = ? AND stock <= min_stock", true).
		Order("stock ASC, name ASC").
		Find(&products).Error
	return products, err
}

func (s *Service) LowStockCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active = ? AND stock <= min_stock", true).
		Count(&n).Error
	return n, err
}
