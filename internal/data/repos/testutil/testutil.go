package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/quizpages/internal/data/db"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

var (
	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		if os.Getenv("TEST_VERBOSE_LOG") == "" {
			logg = logger.Nop()
			return
		}
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a migrated database private to the calling test. It is a sqlite file under
// tb.TempDir() unless TEST_POSTGRES_DSN is set, in which case tables are truncated first.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	}

	var (
		gdb *gorm.DB
		err error
	)
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		gdb, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		path := filepath.Join(tb.TempDir(), "pages.db")
		gdb, err = gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_journal_mode=WAL"), cfg)
	}
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrateAll(gdb); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	if err := db.EnsurePageIndexes(gdb); err != nil {
		tb.Fatalf("page indexes: %v", err)
	}
	if gdb.Dialector.Name() == "postgres" {
		for _, table := range []string{"managed_document", "page_setting", "item_category", "item_scope", "item", "quiz_config", "category", "scope"} {
			if err := gdb.Exec("TRUNCATE TABLE " + table + " RESTART IDENTITY CASCADE").Error; err != nil {
				tb.Fatalf("truncate %s: %v", table, err)
			}
		}
	}
	tb.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

// WriteCounter counts create/update/delete statements issued through a gorm DB.
type WriteCounter struct {
	n atomic.Int64
}

func (w *WriteCounter) Count() int64 { return w.n.Load() }
func (w *WriteCounter) Reset()       { w.n.Store(0) }

// CountWrites registers gorm callbacks on db that count every write statement.
func CountWrites(tb testing.TB, db *gorm.DB) *WriteCounter {
	tb.Helper()
	wc := &WriteCounter{}
	name := "testutil:count_writes:" + uuid.NewString()
	inc := func(tx *gorm.DB) {
		if tx.Error == nil {
			wc.n.Add(1)
		}
	}
	cb := db.Callback()
	if err := cb.Create().After("gorm:create").Register(name, inc); err != nil {
		tb.Fatalf("register create callback: %v", err)
	}
	if err := cb.Update().After("gorm:update").Register(name, inc); err != nil {
		tb.Fatalf("register update callback: %v", err)
	}
	if err := cb.Delete().After("gorm:delete").Register(name, inc); err != nil {
		tb.Fatalf("register delete callback: %v", err)
	}
	return wc
}
