package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit statuses that are not payment statuses.
const (
	HistoryStatusCreated = "CREATED"
	HistoryStatusFailed  = "FAILED"
	HistoryStatusError   = "ERROR"
)

// PaymentHistory is an append-only audit row. Rows are never updated or deleted.
type PaymentHistory struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	PaymentID  string         `gorm:"type:varchar(64);not null;index" json:"payment_id"`
	Status     string         `gorm:"type:varchar(32);not null;index" json:"status"`
	Notes      string         `gorm:"type:text" json:"notes"`
	RawPayload datatypes.JSON `gorm:"type:json;default:null" json:"raw_payload,omitempty"`
	Timestamp  time.Time      `gorm:"type:datetime;not null;index" json:"timestamp"`
}

func (PaymentHistory) TableName() string {
	return "payment_history"
}
