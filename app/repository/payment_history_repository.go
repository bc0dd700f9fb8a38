package repository

import (
	"context"

	"github.com/ManuelReschke/EventPay/app/models"
	"gorm.io/gorm"
)

type paymentHistoryRepository struct {
	db *gorm.DB
}

// NewPaymentHistoryRepository creates a new payment history repository instance
func NewPaymentHistoryRepository(db *gorm.DB) PaymentHistoryRepository {
	return &paymentHistoryRepository{db: db}
}

func (r *paymentHistoryRepository) Append(ctx context.Context, entry *models.PaymentHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *paymentHistoryRepository) ListByPaymentID(ctx context.Context, paymentID string) ([]models.PaymentHistory, error) {
	var entries []models.PaymentHistory
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("timestamp DESC").
		Order("id DESC").
		Find(&entries).Error
	return entries, err
}
