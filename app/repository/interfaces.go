package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/EventPay/app/models"
	"gorm.io/gorm"
)

// StatusChange describes a guarded payment status transition.
type StatusChange struct {
	From       models.PaymentStatus
	To         models.PaymentStatus
	ReceiptURL string
	BarcodeURL string
	At         time.Time
}

// ParticipantRepository defines the participant operations used by payment reconciliation
type ParticipantRepository interface {
	GetByID(ctx context.Context, id string) (*models.Participant, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*models.Participant, error)
	// CompareAndSwapStatus applies change only while the stored status still
	// equals change.From. It reports whether a row was updated.
	CompareAndSwapStatus(ctx context.Context, paymentID string, change StatusChange) (bool, error)
	// AssignPaymentID sets the payment id only if none is stored yet.
	AssignPaymentID(ctx context.Context, participantID, paymentID string) (bool, error)
	MarkReceiptSent(ctx context.Context, participantID string, at time.Time) error
	ListPaidWithoutReceipt(ctx context.Context, limit int) ([]models.Participant, error)
}

// PaymentHistoryRepository is append-only and exposes no update or delete.
type PaymentHistoryRepository interface {
	Append(ctx context.Context, entry *models.PaymentHistory) error
	ListByPaymentID(ctx context.Context, paymentID string) ([]models.PaymentHistory, error)
}

// PaymentQueueRepository defines the operations of the fallback polling queue
type PaymentQueueRepository interface {
	Enqueue(ctx context.Context, item *models.PaymentQueueItem) error
	ListDue(ctx context.Context, maxRetries int) ([]models.PaymentQueueItem, error)
	MarkProcessed(ctx context.Context, id uint) error
	MarkProcessedByPaymentID(ctx context.Context, paymentID string) error
	RecordFailure(ctx context.Context, id uint, errMsg string) error
	List(ctx context.Context, offset, limit int) ([]models.PaymentQueueItem, error)
}

// SettingRepository defines operator setting lookups
type SettingRepository interface {
	GetValue(ctx context.Context, key string) (string, error)
	SetValue(ctx context.Context, key, value string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Participant    ParticipantRepository
	PaymentHistory PaymentHistoryRepository
	PaymentQueue   PaymentQueueRepository
	Setting        SettingRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Participant:    NewParticipantRepository(db),
		PaymentHistory: NewPaymentHistoryRepository(db),
		PaymentQueue:   NewPaymentQueueRepository(db),
		Setting:        NewSettingRepository(db),
	}
}
