package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"clinic-pos/internal/config"
	"clinic-pos/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectAttempts = 5

// Connect opens the configured database, waiting for it to come up, and
// syncs the schema.
func Connect(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	if cfg.DBDriver == "memory" {
		name := cfg.DBDSN
		if name == "" {
			name = "clinic"
		}
		return OpenMemory(name)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is not set for driver %q", cfg.DBDriver)
	}

	dialector, err := dialectorFor(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dialector, gormConfig(cfg.DBLogLevel))
		if err == nil {
			break
		}
		log.Warn("database not ready, retrying",
			zap.String("driver", cfg.DBDriver),
			zap.Int("attempt", i+1),
			zap.Error(err),
		)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s after %d attempts: %w", cfg.DBDriver, connectAttempts, err)
	}
	log.Info("database connected", zap.String("driver", cfg.DBDriver))

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database schema synced")
	return db, nil
}

// Migrate creates or updates every table the application uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// OpenMemory opens a named shared-cache in-memory SQLite database with the
// schema applied. Each distinct name is an isolated database.
func OpenMemory(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", url.PathEscape(name))
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig("silent"))
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One connection keeps the memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Ping checks the connection is still usable.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(mysqlDSN(dsn)), nil
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// mysqlDSN makes sure DATETIME columns scan into time.Time in server-local time.
func mysqlDSN(dsn string) string {
	params := []string{}
	if !strings.Contains(dsn, "parseTime=") {
		params = append(params, "parseTime=true")
	}
	if !strings.Contains(dsn, "loc=") {
		params = append(params, "loc=Local")
	}
	if !strings.Contains(dsn, "charset=") {
		params = append(params, "charset=utf8mb4")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func gormConfig(level string) *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(level)),
		// Referential rules (category in use, customer with sales) are
		// enforced by the handlers, not by database constraints.
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
