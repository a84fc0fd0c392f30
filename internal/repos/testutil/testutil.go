package testutil

import (
  "errors"
  "os"
  "sync"
  "testing"

  "gorm.io/driver/postgres"
  "gorm.io/gorm"
  gormLogger "gorm.io/gorm/logger"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/types"
)

var errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")

var (
  dbOnce sync.Once
  db     *gorm.DB
  dbErr  error

  logOnce sync.Once
  logg    *logger.Logger
  logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
  tb.Helper()
  logOnce.Do(func() {
    logg, logErr = logger.New("test")
  })
  if logErr != nil {
    tb.Fatalf("failed to init logger: %v", logErr)
  }
  return logg
}

func DB(tb testing.TB) *gorm.DB {
  tb.Helper()

  dbOnce.Do(func() {
    dsn := os.Getenv("TEST_POSTGRES_DSN")
    if dsn == "" {
      dbErr = errMissingDSN
      return
    }

    var err error
    db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
      DisableForeignKeyConstraintWhenMigrating: true,
      Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
    })
    if err != nil {
      dbErr = err
      return
    }

    if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
      dbErr = err
      return
    }

    dbErr = db.AutoMigrate(
      &types.UserAccount{},
      &types.VideoRecord{},
      &types.UGCVideoMetadata{},
      &types.VideoGenerationRun{},
      &types.VideoAnalyticsEvent{},
      &types.Favorite{},
      &types.BillingEventLog{},
      &types.SocialConnection{},
    )
  })

  if errors.Is(dbErr, errMissingDSN) {
    tb.Skip("set TEST_POSTGRES_DSN to run repo integration tests")
  }
  if dbErr != nil {
    tb.Fatalf("failed to init test db: %v", dbErr)
  }
  return db
}

// Tx hands the test a transaction that always rolls back, so cases cannot
// leak rows into each other.
func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
  tb.Helper()
  tx := db.Begin()
  if tx.Error != nil {
    tb.Fatalf("begin tx: %v", tx.Error)
  }
  tb.Cleanup(func() {
    _ = tx.Rollback()
  })
  return tx
}
