package types

import (
  "time"

  "github.com/google/uuid"
)

const (
  SocialPlatformInstagram = "instagram"
  SocialPlatformYouTube   = "youtube"
)

type SocialConnection struct {
  ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
  UserEmail    string     `gorm:"column:user_email;not null;uniqueIndex:idx_social_user_platform" json:"user_email"`
  Platform     string     `gorm:"column:platform;not null;uniqueIndex:idx_social_user_platform" json:"platform"`
  AccessToken  string     `gorm:"column:access_token" json:"-"`
  RefreshToken string     `gorm:"column:refresh_token" json:"-"`
  ExpiresAt    *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
  CreatedAt    time.Time  `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt    time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (SocialConnection) TableName() string { return "social_connection" }
