package database

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codyseavey/sneaker-tracker/internal/models"
)

var DB *gorm.DB

// Initialize opens the database at dbPath and keeps it as the package default.
func Initialize(dbPath, logLevel string) error {
	db, err := Open(dbPath, logLevel)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open connects, cleans legacy data, migrates the schema and runs data
// migrations. Safe to call against an existing database.
func Open(dbPath, logLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(logLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("Database connected successfully")

	// Must run before AutoMigrate adds the unique membership index
	if err := cleanupDuplicateCollectionItems(db); err != nil {
		return nil, fmt.Errorf("cleanup duplicate collection items: %w", err)
	}

	err = db.AutoMigrate(
		&models.CatalogEntry{},
		&models.Item{},
		&models.Tag{},
		&models.Collection{},
		&models.CollectionItem{},
	)
	if err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("data migrations: %w", err)
	}

	log.Info().Msg("Database migration completed")
	return db, nil
}

func GetDB() *gorm.DB {
	return DB
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}
