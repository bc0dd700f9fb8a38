package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Participant is a registered racer. PaymentID is the Xendit invoice id and is
// written once when the invoice is created.
type Participant struct {
	ID            string                      `gorm:"type:char(36);primaryKey" json:"id"`
	Name          string                      `gorm:"type:varchar(150);not null" json:"name" validate:"required,max=150"`
	Email         string                      `gorm:"type:varchar(200)" json:"email" validate:"omitempty,email,max=200"`
	Address       string                      `gorm:"type:text" json:"address"`
	WhatsApp      string                      `gorm:"column:whatsapp;type:varchar(32)" json:"whatsapp" validate:"required,max=32"`
	Categories    datatypes.JSONSlice[string] `gorm:"type:json" json:"categories"`
	Price         int64                       `gorm:"not null;default:0" json:"price" validate:"gte=0"`
	PaymentStatus PaymentStatus               `gorm:"type:varchar(16);not null;default:'UNPAID';index" json:"payment_status"`
	PaymentID     *string                     `gorm:"type:varchar(64);uniqueIndex" json:"payment_id,omitempty"`
	ReceiptURL    string                      `gorm:"type:varchar(255);default:null" json:"receipt_url,omitempty"`
	BarcodeURL    string                      `gorm:"type:varchar(255);default:null" json:"barcode_url,omitempty"`
	ReceiptSentAt *time.Time                  `gorm:"type:timestamp;default:null" json:"receipt_sent_at,omitempty"`
	CreatedAt     time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Participant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.PaymentStatus == "" {
		p.PaymentStatus = PaymentStatusUnpaid
	}
	return nil
}

// HasPaymentID reports whether an invoice has already been attached.
func (p *Participant) HasPaymentID() bool {
	return p.PaymentID != nil && strings.TrimSpace(*p.PaymentID) != ""
}

// PaymentRef returns the payment id or an empty string.
func (p *Participant) PaymentRef() string {
	if p.PaymentID == nil {
		return ""
	}
	return *p.PaymentID
}
