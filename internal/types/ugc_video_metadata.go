package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
)

const (
  EnhancementPathPrimary   = "primary"
  EnhancementPathSecondary = "secondary"
  EnhancementPathNone      = "none"
)

// UGCVideoMetadata is the one-to-one satellite row for UGC-category videos.
// It is only ever written in the same transaction as its parent VideoRecord.
type UGCVideoMetadata struct {
  ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
  VideoID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"video_id"`
  AvatarID         string         `gorm:"column:avatar_id" json:"avatar_id"`
  Personality      string         `gorm:"column:personality" json:"personality"`
  ProductName      string         `gorm:"column:product_name" json:"product_name"`
  ProductDesc      string         `gorm:"column:product_description" json:"product_description"`
  ProductImageURL  string         `gorm:"column:product_image_url" json:"product_image_url"`
  Tone             string         `gorm:"column:tone" json:"tone"`
  Language         string         `gorm:"column:language" json:"language"`
  VoiceStyle       string         `gorm:"column:voice_style" json:"voice_style"`
  Gestures         datatypes.JSON `gorm:"type:jsonb;column:gestures" json:"gestures,omitempty"`
  ProductImageUsed bool           `gorm:"column:product_image_used;not null;default:false" json:"product_image_used"`
  EnhancementPath  string         `gorm:"column:enhancement_path;not null;default:none" json:"enhancement_path"`
  CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (UGCVideoMetadata) TableName() string { return "ugc_video_metadata" }
