// Command seed fills an empty database with demo users and catalog data.
// Running it again leaves existing rows untouched.
package main

import (
	"fmt"
	"os"

	"clinic-pos/internal/auth"
	"clinic-pos/internal/config"
	"clinic-pos/internal/database"
	"clinic-pos/internal/models"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := zap.NewDevelopment()
	if err != nil {
		log = zap.NewNop()
	}
	defer log.Sync()

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}

	passwords := seedPasswords{
		admin:    envOr("SEED_ADMIN_PASSWORD", "admin123"),
		employee: envOr("SEED_EMPLOYEE_PASSWORD", "staff123"),
	}
	if err := seed(db, passwords, log); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
	log.Info("seed complete")
}

type seedPasswords struct {
	admin    string
	employee string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type seedProduct struct {
	name     string
	category string
	price    string
	cost     string
	stock    int
	minStock int
}

var (
	seedCategories = []models.ProductCategory{
		{Name: "Medicine", Unit: "box"},
		{Name: "Vitamins", Unit: "bottle"},
		{Name: "Medical Supplies", Unit: "piece"},
	}
	seedProducts = []seedProduct{
		{"Paracetamol 500mg", "Medicine", "15.00", "8.00", 120, 20},
		{"Amoxicillin 250mg", "Medicine", "45.00", "28.00", 60, 10},
		{"Vitamin C 1000mg", "Vitamins", "80.00", "50.00", 40, 5},
		{"Zinc 15mg", "Vitamins", "65.00", "40.00", 4, 5},
		{"Surgical Mask", "Medical Supplies", "2.50", "1.00", 500, 100},
		{"Bandage Roll", "Medical Supplies", "12.00", "6.00", 3, 10},
	}
	seedServices = []models.Service{
		{Name: "General Consultation", Price: decimal.RequireFromString("150.00"), IsActive: true},
		{Name: "Injection", Price: decimal.RequireFromString("50.00"), IsActive: true},
		{Name: "Wound Dressing", Price: decimal.RequireFromString("80.00"), IsActive: true},
	}
)

func seed(db *gorm.DB, passwords seedPasswords, log *zap.Logger) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := seedUser(tx, "admin", "Administrator", models.RoleAdmin, passwords.admin); err != nil {
			return err
		}
		if err := seedUser(tx, "staff", "Front Desk", models.RoleEmployee, passwords.employee); err != nil {
			return err
		}

		categoryIDs := make(map[string]uint, len(seedCategories))
		for _, c := range seedCategories {
			cat := c
			if err := tx.Where(models.ProductCategory{Name: c.Name}).FirstOrCreate(&cat).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, err)
			}
			categoryIDs[cat.Name] = cat.ID
		}

		for _, p := range seedProducts {
			product := models.Product{
				Name:       p.name,
				Price:      decimal.RequireFromString(p.price),
				CostPrice:  decimal.RequireFromString(p.cost),
				Stock:      p.stock,
				MinStock:   p.minStock,
				CategoryID: categoryIDs[p.category],
				Images:     models.ImageList{},
				IsActive:   true,
			}
			if err := tx.Where("name = ?", p.name).FirstOrCreate(&product).Error; err != nil {
				return fmt.Errorf("seed product %s: %w", p.name, err)
			}
		}

		for _, s := range seedServices {
			service := s
			if err := tx.Where("name = ?", s.Name).FirstOrCreate(&service).Error; err != nil {
				return fmt.Errorf("seed service %s: %w", s.Name, err)
			}
		}

		customer := models.Customer{
			FirstName: "Walk-in",
			LastName:  "Customer",
			Phone:     "0000000000",
			Province:  "Vientiane",
		}
		if err := tx.Where("phone = ?", customer.Phone).FirstOrCreate(&customer).Error; err != nil {
			return fmt.Errorf("seed customer: %w", err)
		}

		log.Info("seeded demo data",
			zap.Int("categories", len(seedCategories)),
			zap.Int("products", len(seedProducts)),
			zap.Int("services", len(seedServices)),
		)
		return nil
	})
}

func seedUser(tx *gorm.DB, username, name string, role models.Role, password string) error {
	var existing models.User
	err := tx.Where("username = ?", username).Limit(1).Find(&existing).Error
	if err != nil {
		return err
	}
	if existing.ID != 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user := models.User{Username: username, Name: name, PasswordHash: hash, Role: role, IsActive: true}
	if err := tx.Create(&user).Error; err != nil {
		return fmt.Errorf("seed user %s: %w", username, err)
	}
	return nil
}
