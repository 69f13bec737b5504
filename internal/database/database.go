package database

import (
	"fmt"
	"log"

	"github.com/gdg-garage/badminton-api/internal/config"
	"github.com/gdg-garage/badminton-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open opens the configured driver without migrating. TranslateError makes
// unique-index violations surface as gorm.ErrDuplicatedKey on every driver.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "", "sqlite":
		dialector = sqlite.Open(cfg.DatabasePath)
	case "postgres":
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for the postgres driver")
		}
		dialector = postgres.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	if cfg.DatabasePath == ":memory:" && dialector.Name() == "sqlite" {
		// Each pooled connection would see its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Registration{},
		&models.RegistrationHistory{},
		&models.APIKey{},
	)
}

func Connect(cfg *config.Config) *gorm.DB {
	db, err := Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto Migrate
	if err := Migrate(db); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	return db
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Failed to get database handle: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}
