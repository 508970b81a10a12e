package infra

import (
	"fmt"
	"os"
	"path/filepath"

	"agrosnab/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the local sqlite store for pending confirmations and
// intake sessions, creating the data directory and tables on first run.
// The remote spreadsheet stays the system of record for products and ledgers;
// only local, TTL-bound state lives here.
func NewDatabase(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&model.ConfirmAction{},
		&model.IntakeSession{},
	); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	return db, nil
}
