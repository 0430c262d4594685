// Package infra provides shared infrastructure bootstrap: the database
// connection and schema migration.
package infra

import (
	"errors"
	"time"

	accountinfra "github.com/finvault/ledger/infra/accountstore"
	ledgerinfra "github.com/finvault/ledger/infra/ledger"
	"github.com/finvault/ledger/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDBConnection opens the Postgres connection with pooling configured.
func NewDBConnection(cnf config.DBConfig, appEnv string) (*gorm.DB, error) {
	if cnf.Url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	logMode := logger.Silent
	if appEnv == "development" {
		logMode = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cnf.Url), &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		// Surfaces unique violations as gorm.ErrDuplicatedKey; the ledger
		// store depends on this to report duplicate idempotency keys.
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
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	return db, nil
}

// Migrate creates or updates the accounts and transactions tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&accountinfra.Account{}, &ledgerinfra.Transaction{})
}
