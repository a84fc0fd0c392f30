package types

import "time"

// BillingEventLog records processed payment-provider event IDs so webhook
// redeliveries become no-ops.
type BillingEventLog struct {
  EventID   string    `gorm:"primaryKey;column:event_id" json:"event_id"`
  EventType string    `gorm:"column:event_type;not null" json:"event_type"`
  CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (BillingEventLog) TableName() string { return "billing_event_log" }
