package database

import (
	"strings"

	"tradeledger/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from DSN. postgres:// URLs use the Postgres driver;
// anything else is handed to the embedded sqlite driver.
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind connection poolers.
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: newLogger()}
	if isPostgres(dsn) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), cfg)
	}
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, err
	}
	if err := singleConnection(db); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenMemory opens a private in-memory sqlite database (tests, dry runs).
func OpenMemory() (*gorm.DB, error) {
	return Open(":memory:")
}

// singleConnection pins sqlite to one connection: every pooled connection to
// ":memory:" would otherwise be a separate empty database, and a single writer
// keeps sqlite from returning SQLITE_BUSY under concurrent sessions.
func singleConnection(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)
	return nil
}

// AutoMigrate runs migrations for the ledger tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Account{}, &domain.Holding{})
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
