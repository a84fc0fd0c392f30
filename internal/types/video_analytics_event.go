package types

import (
  "time"

  "github.com/google/uuid"
)

const (
  AnalyticsActionView     = "view"
  AnalyticsActionDownload = "download"
  AnalyticsActionShare    = "share"
)

// VideoAnalyticsEvent rows are append-only. Counters on VideoRecord are
// incremented at write time, not recomputed from this log.
type VideoAnalyticsEvent struct {
  ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
  VideoID    uuid.UUID `gorm:"type:uuid;not null;index" json:"video_id"`
  Action     string    `gorm:"column:action;not null;index" json:"action"`
  ActorEmail string    `gorm:"column:actor_email" json:"actor_email,omitempty"`
  ClientIP   string    `gorm:"column:client_ip" json:"client_ip,omitempty"`
  UserAgent  string    `gorm:"column:user_agent" json:"user_agent,omitempty"`
  Referrer   string    `gorm:"column:referrer" json:"referrer,omitempty"`
  CreatedAt  time.Time `gorm:"not null;default:now();index" json:"created_at"`
}

func (VideoAnalyticsEvent) TableName() string { return "video_analytics_event" }
