// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ShriviCTO/shrivi/internal/config"
	"github.com/ShriviCTO/shrivi/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		// Unique-key violations surface as gorm.ErrDuplicatedKey so services
		// can map them to DuplicateName without parsing driver messages.
		TranslateError: true,
	}
	if cfg.LogLevel == "silent" {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	} else {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductImage{},
		&models.Variant{},
		&models.DiscountHistoryEntry{},
		&models.Review{},
		&models.Combo{},
		&models.ComboItem{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Name uniqueness holds among live products only; the partial index
		// makes the check-and-insert atomic at the storage layer.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_name_live ON products(name) WHERE deleted_at IS NULL",
		// SKUs are likewise reserved by live variants only; a soft-deleted
		// product releases its SKUs along with its name.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_variants_sku_live ON variants(sku) WHERE deleted_at IS NULL AND sku IS NOT NULL",

		"CREATE INDEX IF NOT EXISTS idx_products_status_created ON products(status, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_products_tags ON products USING GIN(tags)",
		"CREATE INDEX IF NOT EXISTS idx_variants_product_stock ON variants(product_id, stock)",
		"CREATE INDEX IF NOT EXISTS idx_reviews_product_rating ON reviews(product_id, rating)",
		"CREATE INDEX IF NOT EXISTS idx_discount_history_created ON discount_history_entries(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_combo_items_combo ON combo_items(combo_id)",
		"CREATE INDEX IF NOT EXISTS idx_users_role_status ON users(role, status)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
