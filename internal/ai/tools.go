package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clinic-pos/internal/models"
	"clinic-pos/internal/reporting"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tools runs the assistant's function calls against the shop database.
// Results are plain maps and slices so they travel as protobuf Structs.
type Tools struct {
	db      *gorm.DB
	reports *reporting.Service
	now     func() time.Time
}

func NewTools(db *gorm.DB) *Tools {
	return &Tools{db: db, reports: reporting.NewService(db), now: time.Now}
}

// Declarations describes the tools to the model.
func (t *Tools) Declarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        "check_inventory",
			Description: "Get the full list of active products. Use this to find ANY product detail like ID, name, category, price, cost or stock.",
		},
		{
			Name:        "get_low_stock",
			Description: "List active products whose stock is at or below their minimum stock level.",
		},
		{
			Name:        "get_revenue_report",
			Description: "Get collected revenue (PAID and TRANSFER sales) and the number of sales for a date range.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
					"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD), inclusive"},
				},
				Required: []string{"start_date", "end_date"},
			},
		},
		{
			Name:        "update_product_price",
			Description: "Update the selling price of a specific product using its ID",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"product_id": {Type: genai.TypeInteger, Description: "ID of the product"},
					"new_price":  {Type: genai.TypeNumber, Description: "New price, greater than zero"},
				},
				Required: []string{"product_id", "new_price"},
			},
		},
	}
}

// Call runs one tool. Bad arguments come back as an "error" entry for the
// model to read; only database failures are returned as errors.
func (t *Tools) Call(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	switch name {
	case "check_inventory":
		return t.inventory(ctx)
	case "get_low_stock":
		return t.lowStock(ctx)
	case "get_revenue_report":
		return t.revenue(ctx, args)
	case "update_product_price":
		return t.updatePrice(ctx, args)
	default:
		return toolError("unknown tool %q", name), nil
	}
}

func toolError(format string, args ...any) map[string]any {
	return map[string]any{"error": fmt.Sprintf(format, args...)}
}

func productRow(p models.Product) map[string]any {
	category := ""
	if p.Category != nil {
		category = p.Category.Name
	}
	return map[string]any{
		"id":        float64(p.ID),
		"name":      p.Name,
		"category":  category,
		"price":     p.Price.InexactFloat64(),
		"costPrice": p.CostPrice.InexactFloat64(),
		"stock":     float64(p.Stock),
		"minStock":  float64(p.MinStock),
	}
}

func (t *Tools) inventory(ctx context.Context) (map[string]any, error) {
	var products []models.Product
	err := t.db.WithContext(ctx).
		Preload("Category").
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	rows := make([]any, 0, len(products))
	for _, p := range products {
		rows = append(rows, productRow(p))
	}
	return map[string]any{"inventory": rows}, nil
}

func (t *Tools) lowStock(ctx context.Context) (map[string]any, error) {
	products, err := t.reports.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]any, 0, len(products))
	for _, p := range products {
		rows = append(rows, productRow(p))
	}
	return map[string]any{"low_stock": rows}, nil
}

func (t *Tools) revenue(ctx context.Context, args map[string]any) (map[string]any, error) {
	start, _ := args["start_date"].(string)
	end, _ := args["end_date"].(string)
	if strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return toolError("start_date and end_date are required (YYYY-MM-DD)"), nil
	}

	q, err := reporting.ParseRevenueQuery(start, end, reporting.StatusAll, string(reporting.Daily), t.now())
	if err != nil {
		return toolError("dates must be in YYYY-MM-DD format"), nil
	}
	report, err := t.reports.Revenue(ctx, q)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"revenue":      report.Summary.TotalRevenue.InexactFloat64(),
		"sales_count":  float64(report.Summary.TotalCount),
		"avg_per_sale": report.Summary.AvgPerSale.InexactFloat64(),
	}, nil
}

func (t *Tools) updatePrice(ctx context.Context, args map[string]any) (map[string]any, error) {
	id, ok := number(args["product_id"])
	if !ok || id <= 0 {
		return toolError("product_id must be a positive number"), nil
	}
	raw, ok := number(args["new_price"])
	if !ok {
		return toolError("new_price must be a number"), nil
	}
	price := decimal.NewFromFloat(raw).Round(2)
	if !price.IsPositive() {
		return toolError("new_price must be greater than zero"), nil
	}

	result := t.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND is_active = ?", uint(id), true).
		Update("price", price)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return map[string]any{"status": "Product ID not found"}, nil
	}
	return map[string]any{"status": "Success", "new_price": price.InexactFloat64()}, nil
}

// number accepts the float64 JSON numbers Gemini sends, plus ints from tests.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
