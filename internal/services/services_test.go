package services

import (
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tuitionhub/server/internal/config"
	"github.com/tuitionhub/server/internal/db"
	"github.com/tuitionhub/server/internal/fees"
	"github.com/tuitionhub/server/internal/models"
)

// openTestDB returns an isolated in-file SQLite database in a temp directory.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(config.Database{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	gdb.Logger = logger.Default.LogMode(logger.Silent)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

var day0 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func seedTeacher(t *testing.T, gdb *gorm.DB, email string) Actor {
	t.Helper()
	acct, err := CreateTeacher(gdb, AccountInput{Name: "Teacher " + email, Email: email, Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("CreateTeacher: %v", err)
	}
	return ActorOf(*acct)
}

func seedBatch(t *testing.T, gdb *gorm.DB, actor Actor, fee int, period fees.Period) *models.Batch {
	t.Helper()
	b, err := CreateBatch(gdb, actor, BatchInput{Name: "Physics", Standard: "10", Fee: fee, FeePeriod: period})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	return b
}

func seedStudent(t *testing.T, gdb *gorm.DB, actor Actor, batchID uint, phone string, joined time.Time) *models.Student {
	t.Helper()
	s, err := CreateStudent(gdb, actor, batchID, StudentInput{Name: "Asha", Phone: phone, JoinedAt: &joined}, joined)
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}
	return s
}

func intp(v int) *int { return &v }
