package handlers

import (
	"time"

	"clinic-pos/internal/middleware"
	"clinic-pos/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Router builds the HTTP surface. uploadDir is served under /uploads when set.
func (h *Handler) Router(uploadDir string) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = h.cfg.MaxUploadMB << 20
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(h.log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     h.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", h.Health)
	if uploadDir != "" {
		r.Static(storage.PublicPrefix, uploadDir)
	}

	// --- PUBLIC ---
	r.POST("/api/auth/login", h.Login)
	r.GET("/api/promotions-public", h.PublicPromotions)
	// Registration is a feature flag, off unless explicitly allowed
	if h.cfg.AllowRegistration {
		r.POST("/api/auth/register", h.Register)
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(h.tokens))
	{
		api.GET("/auth/me", h.Me)

		api.GET("/categories", h.ListCategories)
		api.POST("/categories", h.CreateCategory)
		api.PUT("/categories/:id", h.UpdateCategory)
		api.DELETE("/categories/:id", h.DeleteCategory)

		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)
		api.POST("/products", h.CreateProduct)
		api.PUT("/products/:id", h.UpdateProduct)
		api.DELETE("/products/:id", h.DeleteProduct)

		api.GET("/services", h.ListServices)
		api.POST("/services", h.CreateService)
		api.PUT("/services/:id", h.UpdateService)
		api.DELETE("/services/:id", h.DeleteService)

		api.GET("/promotions", h.ListPromotions)
		api.POST("/promotions", h.CreatePromotion)
		api.PUT("/promotions/:id", h.UpdatePromotion)
		api.DELETE("/promotions/:id", h.DeletePromotion)

		api.GET("/reports/low-stock", h.LowStock)

		// Sales and customers are filtered by who is asking
		scoped := api.Group("")
		scoped.Use(middleware.ResolveVisibility(h.db, h.log))
		{
			scoped.GET("/customers", h.ListCustomers)
			scoped.GET("/customers/:id", h.GetCustomer)
			scoped.POST("/customers", h.CreateCustomer)
			scoped.PUT("/customers/:id", h.UpdateCustomer)
			scoped.DELETE("/customers/:id", h.DeleteCustomer)

			scoped.GET("/sales", h.ListSales)
			scoped.GET("/sales/:id", h.GetSale)
			scoped.POST("/sales", h.CreateSale)
			scoped.POST("/checkout", h.CreateSale)
			scoped.PUT("/sales/:id", h.UpdateSale)

			scoped.GET("/dashboard/stats", h.DashboardStats)
		}

		// ADMIN ONLY
		admin := api.Group("")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/users", h.ListUsers)
			admin.POST("/users", h.CreateUser)
			admin.PUT("/users/:id", h.UpdateUser)
			admin.DELETE("/users/:id", h.DeleteUser)

			admin.GET("/reports/revenue", h.RevenueReport)
			admin.GET("/reports/valuation", h.StockValuation)

			admin.POST("/ask", h.AskAI)
		}
	}

	return r
}
