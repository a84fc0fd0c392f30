package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
)

const (
  VideoCategoryGeneral = "general"
  VideoCategoryUGCAds  = "ugc_ads"
)

// A record only exists once generation has finished; failures live on the
// run, not the record.
const (
  VideoStatusCompleted         = "completed"
  VideoStatusCompletedDegraded = "completed_degraded"
)

type VideoRecord struct {
  ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
  Name            string         `gorm:"column:name;not null" json:"name"`
  Script          datatypes.JSON `gorm:"type:jsonb;column:script" json:"script"`
  AudioURL        string         `gorm:"column:audio_url" json:"audio_url"`
  Captions        datatypes.JSON `gorm:"type:jsonb;column:captions" json:"captions"`
  ImageURLs       datatypes.JSON `gorm:"type:jsonb;column:image_urls" json:"image_urls"`
  VideoURL        *string        `gorm:"column:video_url" json:"video_url,omitempty"`
  ThumbnailURL    *string        `gorm:"column:thumbnail_url" json:"thumbnail_url,omitempty"`
  CreatedBy       string         `gorm:"column:created_by;not null;index" json:"created_by"`
  Category        string         `gorm:"column:category;not null;default:general;index" json:"category"`
  Status          string         `gorm:"column:status;not null;index" json:"status"`
  MissingFeatures datatypes.JSON `gorm:"type:jsonb;column:missing_features" json:"missing_features,omitempty"`
  Views           int64          `gorm:"column:views;not null;default:0" json:"views"`
  Downloads       int64          `gorm:"column:downloads;not null;default:0" json:"downloads"`
  Shares          int64          `gorm:"column:shares;not null;default:0" json:"shares"`
  IsShared        bool           `gorm:"column:is_shared;not null;default:false" json:"is_shared"`
  Settings        datatypes.JSON `gorm:"type:jsonb;column:settings" json:"settings,omitempty"`
  CreatedAt       time.Time      `gorm:"not null;default:now();index" json:"created_at"`
  UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (VideoRecord) TableName() string { return "video_record" }
