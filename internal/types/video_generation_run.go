package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
)

const (
  RunStatusQueued    = "queued"
  RunStatusRunning   = "running"
  RunStatusSucceeded = "succeeded"
  RunStatusFailed    = "failed"
)

const (
  RunStageScript   = "script"
  RunStageSpeech   = "speech"
  RunStageCaptions = "captions"
  RunStageImagery  = "imagery"
  RunStageAvatar   = "avatar"
  RunStagePersist  = "persist"
  RunStageDone     = "done"
)

// VideoGenerationRun drives one asynchronous generation attempt. The
// VideoRecord itself is only created at the persistence stage; until then all
// intermediate work lives on the worker goroutine.
type VideoGenerationRun struct {
  ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
  UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
  VideoID     *uuid.UUID     `gorm:"type:uuid;index" json:"video_id,omitempty"`
  Status      string         `gorm:"column:status;not null;index" json:"status"`
  Stage       string         `gorm:"column:stage;not null;index" json:"stage"`
  Progress    int            `gorm:"column:progress;not null;default:0" json:"progress"`
  Attempts    int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
  Error       string         `gorm:"column:error" json:"error,omitempty"`
  ErrorCode   string         `gorm:"column:error_code" json:"error_code,omitempty"`
  LastErrorAt *time.Time     `gorm:"column:last_error_at" json:"last_error_at,omitempty"`
  LockedAt    *time.Time     `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
  HeartbeatAt *time.Time     `gorm:"column:heartbeat_at;index" json:"heartbeat_at,omitempty"`
  Settings    datatypes.JSON `gorm:"type:jsonb;column:settings" json:"settings"`
  CreatedAt   time.Time      `gorm:"not null;default:now();index" json:"created_at"`
  UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (VideoGenerationRun) TableName() string { return "video_generation_run" }
