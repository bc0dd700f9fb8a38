package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/EventPay/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type paymentQueueRepository struct {
	db *gorm.DB
}

// NewPaymentQueueRepository creates a new payment queue repository instance
func NewPaymentQueueRepository(db *gorm.DB) PaymentQueueRepository {
	return &paymentQueueRepository{db: db}
}

// Enqueue inserts a PENDING item. Re-enqueueing the same payment id is a no-op.
func (r *paymentQueueRepository) Enqueue(ctx context.Context, item *models.PaymentQueueItem) error {
	if item.Status == "" {
		item.Status = models.PaymentQueueStatusPending
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "payment_id"}},
		DoNothing: true,
	}).Create(item).Error
}

func (r *paymentQueueRepository) ListDue(ctx context.Context, maxRetries int) ([]models.PaymentQueueItem, error) {
	var items []models.PaymentQueueItem
	err := r.dueQuery(r.db.WithContext(ctx), maxRetries).Find(&items).Error
	return items, err
}

// dueQuery selects PENDING items that are still within the retry cap, oldest first.
func (r *paymentQueueRepository) dueQuery(db *gorm.DB, maxRetries int) *gorm.DB {
	return db.Model(&models.PaymentQueueItem{}).
		Where("status = ? AND retry_count <= ?", models.PaymentQueueStatusPending, maxRetries).
		Order("created_at ASC")
}

func (r *paymentQueueRepository) MarkProcessed(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.PaymentQueueItem{}).
		Where("id = ? AND status = ?", id, models.PaymentQueueStatusPending).
		Updates(map[string]interface{}{
			"status":     models.PaymentQueueStatusProcessed,
			"updated_at": time.Now(),
		}).Error
}

func (r *paymentQueueRepository) MarkProcessedByPaymentID(ctx context.Context, paymentID string) error {
	return r.db.WithContext(ctx).Model(&models.PaymentQueueItem{}).
		Where("payment_id = ? AND status = ?", paymentID, models.PaymentQueueStatusPending).
		Updates(map[string]interface{}{
			"status":     models.PaymentQueueStatusProcessed,
			"updated_at": time.Now(),
		}).Error
}

// RecordFailure increments retry_count in the database rather than from the
// value the caller read, so concurrent sweeps cannot lose an increment.
func (r *paymentQueueRepository) RecordFailure(ctx context.Context, id uint, errMsg string) error {
	return r.db.WithContext(ctx).Model(&models.PaymentQueueItem{}).
		Where("id = ? AND status = ?", id, models.PaymentQueueStatusPending).
		Updates(map[string]interface{}{
			"retry_count": gorm.Expr("retry_count + ?", 1),
			"last_error":  errMsg,
			"updated_at":  time.Now(),
		}).Error
}

func (r *paymentQueueRepository) List(ctx context.Context, offset, limit int) ([]models.PaymentQueueItem, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []models.PaymentQueueItem
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	return items, err
}
