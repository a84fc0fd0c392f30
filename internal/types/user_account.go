package types

import (
  "time"

  "github.com/google/uuid"
)

const (
  UserRoleUser  = "user"
  UserRoleAdmin = "admin"
)

const (
  SubscriptionStatusActive   = "active"
  SubscriptionStatusPastDue  = "past_due"
  SubscriptionStatusCanceled = "canceled"
)

// DefaultCoins is the starting balance for a new account.
const DefaultCoins = 100

type UserAccount struct {
  ID                   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
  Email                string     `gorm:"uniqueIndex;not null;column:email" json:"email"`
  Password             string     `gorm:"not null;column:password" json:"-"`
  Name                 string     `gorm:"column:name" json:"name"`
  AvatarBucketKey      string     `gorm:"column:avatar_bucket_key" json:"avatar_bucket_key"`
  AvatarURL            string     `gorm:"column:avatar_url" json:"avatar_url"`
  Role                 string     `gorm:"column:role;not null;default:user" json:"role"`
  IsSubscribed         bool       `gorm:"column:is_subscribed;not null;default:false" json:"is_subscribed"`
  Plan                 string     `gorm:"column:plan" json:"plan"`
  SubscriptionStatus   string     `gorm:"column:subscription_status" json:"subscription_status"`
  StripeCustomerID     string     `gorm:"column:stripe_customer_id;index" json:"-"`
  StripeSubscriptionID string     `gorm:"column:stripe_subscription_id;index" json:"-"`
  PeriodStart          *time.Time `gorm:"column:period_start" json:"period_start,omitempty"`
  PeriodEnd            *time.Time `gorm:"column:period_end" json:"period_end,omitempty"`
  Coins                int64      `gorm:"column:coins;not null;default:100" json:"coins"`
  VideosThisPeriod     int        `gorm:"column:videos_this_period;not null;default:0" json:"videos_this_period"`
  PeriodVideoLimit     int        `gorm:"column:period_video_limit;not null;default:0" json:"period_video_limit"`
  CreatedAt            time.Time  `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt            time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserAccount) TableName() string { return "user_account" }
