package types

import (
  "time"

  "github.com/google/uuid"
)

type Favorite struct {
  ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
  UserEmail string    `gorm:"column:user_email;not null;uniqueIndex:idx_favorite_user_video" json:"user_email"`
  VideoID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_video;index" json:"video_id"`
  CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Favorite) TableName() string { return "favorite" }
