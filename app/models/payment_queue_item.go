package models

import "time"

// PaymentQueueStatus is the lifecycle state of a fallback polling entry.
type PaymentQueueStatus string

const (
	PaymentQueueStatusPending   PaymentQueueStatus = "PENDING"
	PaymentQueueStatusProcessed PaymentQueueStatus = "PROCESSED"
)

// PaymentQueueItem tracks an initiated payment until a terminal status has been
// reconciled. Items whose RetryCount exceeds the cap stay PENDING but are no
// longer selected.
type PaymentQueueItem struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	PaymentID     string             `gorm:"type:varchar(64);not null;uniqueIndex" json:"payment_id"`
	ParticipantID string             `gorm:"type:char(36);not null;index" json:"participant_id"`
	Status        PaymentQueueStatus `gorm:"type:varchar(16);not null;default:'PENDING';index:idx_payment_queue_status_retry,priority:1" json:"status"`
	RetryCount    int                `gorm:"not null;default:0;index:idx_payment_queue_status_retry,priority:2" json:"retry_count"`
	LastError     string             `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt     time.Time          `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PaymentQueueItem) TableName() string {
	return "payment_queue"
}

// IsAbandoned reports whether the item has exceeded maxRetries and needs manual attention.
func (i *PaymentQueueItem) IsAbandoned(maxRetries int) bool {
	return i.Status == PaymentQueueStatusPending && i.RetryCount > maxRetries
}
