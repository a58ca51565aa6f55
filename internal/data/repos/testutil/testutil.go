package testutil

import (
	"os"
	"sync"
	"testing"

	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	appdb "github.com/yungbote/collection-listing/internal/data/db"
	"github.com/yungbote/collection-listing/internal/platform/logger"
)

// shared holds a lazily opened value reused by every test in a package.
type shared[T any] struct {
	once sync.Once
	val  T
	err  error
}

func (s *shared[T]) get(tb testing.TB, what string, open func() (T, error)) T {
	tb.Helper()
	s.once.Do(func() { s.val, s.err = open() })
	if s.err != nil {
		tb.Fatalf("testutil %s: %v", what, s.err)
	}
	return s.val
}

var (
	sharedLog shared[*logger.Logger]
	sharedDB  shared[*gorm.DB]
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return sharedLog.get(tb, "logger", func() (*logger.Logger, error) {
		return logger.New("test")
	})
}

// testDBConfig targets TEST_POSTGRES_DSN when set and a shared in-memory
// SQLite database otherwise.
func testDBConfig() appdb.Config {
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		return appdb.Config{Driver: appdb.DriverPostgres, PostgresDSN: dsn}
	}
	return appdb.Config{Driver: appdb.DriverSQLite, SQLitePath: "file::memory:?cache=shared"}
}

// DB returns the migrated package-wide test database.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	return sharedDB.get(tb, "db", func() (*gorm.DB, error) {
		dialector, err := appdb.Dialector(testDBConfig())
		if err != nil {
			return nil, err
		}
		gdb, err := gorm.Open(dialector, &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			TranslateError:                           true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			return nil, err
		}
		if err := appdb.AutoMigrateAll(gdb); err != nil {
			return nil, err
		}
		return gdb, nil
	})
}

// Tx opens a transaction on db that is rolled back when the test ends.
func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if err := tx.Error; err != nil {
		tb.Fatalf("testutil begin tx: %v", err)
	}
	tb.Cleanup(func() { tx.Rollback() })
	return tx
}
