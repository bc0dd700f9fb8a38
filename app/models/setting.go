package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Setting keys maintained by the event operator.
const (
	SettingWhatsAppTemplate = "whatsapp_template"
	SettingEventTitle       = "event_title"
)

// Placeholder substituted with the receipt link in the WhatsApp template.
const ReceiptURLPlaceholder = "{{receipt_url}}"

const (
	DefaultWhatsAppTemplate = "Terima kasih, pembayaran Anda telah kami terima. Kwitansi: " + ReceiptURLPlaceholder
	DefaultEventTitle       = "Race RC Adventure"
)

// Setting represents an operator-configurable key/value pair
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null;default:'string'" json:"type" validate:"required,oneof=string boolean integer"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Setting) Validate() error {
	v := validator.New()
	return v.Struct(s)
}

// RenderReceiptMessage substitutes the receipt link into a WhatsApp template.
func RenderReceiptMessage(template, receiptURL string) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultWhatsAppTemplate
	}
	return strings.ReplaceAll(template, ReceiptURLPlaceholder, receiptURL)
}
