package handlers

import (
	"net/http"
	"time"

	"clinic-pos/internal/middleware"
	"clinic-pos/internal/reporting"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/reports/revenue ---
// ?startDate&endDate (YYYY-MM-DD), ?status=ALL|PAID|UNPAID|TRANSFER, ?period=daily|weekly|monthly|yearly
func (h *Handler) RevenueReport(c *gin.Context) {
	q, err := reporting.ParseRevenueQuery(
		c.Query("startDate"),
		c.Query("endDate"),
		c.Query("status"),
		c.Query("period"),
		time.Now(),
	)
	if err != nil {
		h.fail(c, err)
		return
	}

	report, err := h.reports.Revenue(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, report, "")
}

// --- GET: /api/dashboard/stats ---
func (h *Handler) DashboardStats(c *gin.Context) {
	stats, err := h.reports.Dashboard(c.Request.Context(), middleware.Rules(c), principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, stats, "")
}

// --- GET: /api/reports/valuation ---
// Total cost value of the stock on hand, grouped by category.
func (h *Handler) StockValuation(c *gin.Context) {
	valuation, err := h.reports.StockValuation(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, valuation, "")
}

// --- GET: /api/reports/low-stock ---
func (h *Handler) LowStock(c *gin.Context) {
	products, err := h.reports.LowStock(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		out = append(out, viewProduct(p))
	}
	respond(c, http.StatusOK, out, "")
}
