package db

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/tuitionhub/server/internal/config"
	"github.com/tuitionhub/server/internal/models"
)

const sqliteParams = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqliteParams
	}
	return dsn + "?" + sqliteParams
}

// Open connects, migrates and returns the database handle.
func Open(cfg config.Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(sqliteDSN(cfg.DSN))
	default:
		return nil, errors.Errorf("db: unsupported driver %q", cfg.Driver)
	}

	level := logger.Warn
	if cfg.Debug {
		level = logger.Info
	}
	gormLog := logger.New(log.New(os.Stderr, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "db: open")
	}

	if conn.Dialector.Name() == "sqlite" {
		// SQLite works best with a single writer; cap the pool accordingly.
		// This also serialises payment transactions, which FOR UPDATE does on postgres.
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	}

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.Account{},
		&models.Batch{},
		&models.Student{},
		&models.Payment{},
	); err != nil {
		return errors.Wrap(err, "db: auto-migrate")
	}

	// Composite indexes that GORM doesn't auto-create from struct tags.
	for _, stmt := range []string{
		"CREATE INDEX IF NOT EXISTS idx_payments_student_paid ON payments(student_id, paid_at)",
		"CREATE INDEX IF NOT EXISTS idx_students_batch_joined ON students(batch_id, joined_at)",
	} {
		if err := conn.Exec(stmt).Error; err != nil {
			return errors.Wrap(err, "db: create index")
		}
	}
	return nil
}

// ForUpdate row-locks the selected rows on databases that support it.
// SQLite has no FOR UPDATE; there the single-connection pool serialises writers.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
