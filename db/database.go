package db

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the shared investigation database handle
var DB *gorm.DB

// Initialize opens the sqlite case database. WAL mode keeps readers from
// blocking the audit-trail writes; foreign keys back the history and
// attachment cascades.
func Initialize(dbPath string, environment string) error {
	logLevel := logger.Info
	if environment == "production" {
		logLevel = logger.Warn
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on", dbPath)

	var err error
	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to open case database: %w", err)
	}

	log.Printf("Case database ready at %s (WAL)", dbPath)
	return nil
}

// AutoMigrate applies the schema for the given models
func AutoMigrate(models ...interface{}) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Println("Schema migrations applied")
	return nil
}

// Close releases the underlying sqlite connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access underlying connection: %w", err)
	}
	return sqlDB.Close()
}
