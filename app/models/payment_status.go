package models

import "strings"

// PaymentStatus is the payment state of a participant as reported by the gateway.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusFailed  PaymentStatus = "FAILED"
	PaymentStatusExpired PaymentStatus = "EXPIRED"
)

// ParsePaymentStatus maps a gateway status string onto a PaymentStatus.
// Xendit reports SETTLED for captured invoices and PENDING for open ones.
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "UNPAID", "PENDING":
		return PaymentStatusUnpaid, true
	case "PAID", "SETTLED":
		return PaymentStatusPaid, true
	case "FAILED":
		return PaymentStatusFailed, true
	case "EXPIRED":
		return PaymentStatusExpired, true
	default:
		return "", false
	}
}

// IsTerminal reports whether no further transition is expected after s.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusFailed, PaymentStatusExpired:
		return true
	default:
		return false
	}
}

func (s PaymentStatus) String() string {
	return string(s)
}
