package testutil

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/promptlift-backend/internal/data/db"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

// Repo tests run against postgres when TEST_POSTGRES_DSN is set, or against an
// in-memory sqlite database when TEST_DB_DRIVER=sqlite. Otherwise they skip.
var errNoTestDB = errors.New("no test database configured")

var (
	dbOnce sync.Once
	gdb    *gorm.DB
	dbErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.Nop()
}

func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dbOnce.Do(func() {
		svc, err := open()
		if err != nil {
			dbErr = err
			return
		}
		if err := db.AutoMigrateAll(svc.DB()); err != nil {
			dbErr = err
			return
		}
		gdb = svc.DB()
	})

	if errors.Is(dbErr, errNoTestDB) {
		tb.Skip("set TEST_POSTGRES_DSN or TEST_DB_DRIVER=sqlite to run repo integration tests")
	}
	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return gdb
}

func open() (*db.Service, error) {
	log := logger.Nop()
	if strings.EqualFold(strings.TrimSpace(os.Getenv("TEST_DB_DRIVER")), db.DriverSQLite) {
		return db.NewSQLiteService(log, "file::memory:?cache=shared")
	}
	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		return nil, errNoTestDB
	}
	// NewPostgresService reads POSTGRES_DSN.
	if err := os.Setenv("POSTGRES_DSN", dsn); err != nil {
		return nil, err
	}
	return db.NewPostgresService(log)
}

// Tx opens a transaction that is rolled back when the test ends.
func Tx(tb testing.TB, gdb *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := gdb.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}
