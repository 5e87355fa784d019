package infra

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
)

// NewDatabase establishes a GORM connection backed by pgx and runs
// AutoMigrate for the ledger schema. TranslateError is enabled so unique
// violations surface as gorm.ErrDuplicatedKey — the tip-distribution
// idempotency path depends on that translation.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return db, nil
}

// RunMigrations creates/updates all tables. Called once from NewDatabase.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.CashSession{},
		&model.LedgerEntry{},
		&model.OpeningBalanceEdit{},
		&model.Sale{},
		&model.TipAdjustmentRecord{},
		&model.TipDistribution{},
		&model.TipPayout{},
		&model.Employee{},
		&model.Shift{},
		&model.AuditEvent{},
	)
}
