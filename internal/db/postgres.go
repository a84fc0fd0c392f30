package db

import (
  "fmt"

  "gorm.io/driver/postgres"
  "gorm.io/gorm"

  "github.com/yungbote/reelforge-backend/internal/logger"
  "github.com/yungbote/reelforge-backend/internal/types"
  "github.com/yungbote/reelforge-backend/internal/utils"
)

type PostgresService struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
  postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
  postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
  postgresName := utils.GetEnv("POSTGRES_NAME", "reelforge", log)

  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  serviceLog.Info("Connecting to Postgres...")
  gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
  })
  if err != nil {
    return nil, fmt.Errorf("connect to postgres: %w", err)
  }

  if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
    return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
  }

  return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Auto migrating postgres tables...")
  err := s.db.AutoMigrate(
    &types.UserAccount{},
    &types.VideoRecord{},
    &types.UGCVideoMetadata{},
    &types.VideoGenerationRun{},
    &types.VideoAnalyticsEvent{},
    &types.Favorite{},
    &types.BillingEventLog{},
    &types.SocialConnection{},
  )
  if err != nil {
    s.log.Error("Auto migration failed for postgres tables", "error", err)
    return err
  }

  // Referential constraints the entities rely on. Favorites, analytics events
  // and UGC metadata must never outlive their video.
  constraints := []struct {
    name string
    sql  string
  }{
    {
      name: "fk_ugc_video_metadata_video_id",
      sql: `ALTER TABLE "ugc_video_metadata"
            ADD CONSTRAINT "fk_ugc_video_metadata_video_id"
            FOREIGN KEY ("video_id") REFERENCES "video_record"("id")
            ON DELETE CASCADE`,
    },
    {
      name: "fk_video_analytics_event_video_id",
      sql: `ALTER TABLE "video_analytics_event"
            ADD CONSTRAINT "fk_video_analytics_event_video_id"
            FOREIGN KEY ("video_id") REFERENCES "video_record"("id")
            ON DELETE CASCADE`,
    },
    {
      name: "fk_favorite_video_id",
      sql: `ALTER TABLE "favorite"
            ADD CONSTRAINT "fk_favorite_video_id"
            FOREIGN KEY ("video_id") REFERENCES "video_record"("id")
            ON DELETE CASCADE`,
    },
  }
  for _, c := range constraints {
    var count int64
    if err := s.db.Raw(
      `SELECT COUNT(*) FROM pg_constraint WHERE conname = ?`, c.name,
    ).Scan(&count).Error; err != nil {
      return fmt.Errorf("check constraint %s: %w", c.name, err)
    }
    if count > 0 {
      continue
    }
    if err := s.db.Exec(c.sql).Error; err != nil {
      return fmt.Errorf("add %s: %w", c.name, err)
    }
  }
  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}
