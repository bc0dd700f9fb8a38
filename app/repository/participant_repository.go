package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/EventPay/app/models"
	"gorm.io/gorm"
)

// participantRepository implements the ParticipantRepository interface
type participantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository creates a new participant repository instance
func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) GetByID(ctx context.Context, id string) (*models.Participant, error) {
	var p models.Participant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *participantRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.Participant, error) {
	var p models.Participant
	if err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *participantRepository) CompareAndSwapStatus(ctx context.Context, paymentID string, change StatusChange) (bool, error) {
	tx := r.statusUpdate(r.db.WithContext(ctx), paymentID, change)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// statusUpdate builds the guarded UPDATE. The payment_status predicate is the
// serialization point between concurrent webhook and poller deliveries.
func (r *participantRepository) statusUpdate(db *gorm.DB, paymentID string, change StatusChange) *gorm.DB {
	updates := map[string]interface{}{
		"payment_status": change.To,
		"updated_at":     change.At,
	}
	if change.To == models.PaymentStatusPaid {
		updates["receipt_url"] = change.ReceiptURL
		updates["barcode_url"] = change.BarcodeURL
	}
	return db.Model(&models.Participant{}).
		Where("payment_id = ? AND payment_status = ?", paymentID, change.From).
		Updates(updates)
}

func (r *participantRepository) AssignPaymentID(ctx context.Context, participantID, paymentID string) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Participant{}).
		Where("id = ? AND (payment_id IS NULL OR payment_id = '')", participantID).
		Updates(map[string]interface{}{
			"payment_id": paymentID,
			"updated_at": time.Now(),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *participantRepository) MarkReceiptSent(ctx context.Context, participantID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Participant{}).
		Where("id = ?", participantID).
		Update("receipt_sent_at", at).Error
}

func (r *participantRepository) ListPaidWithoutReceipt(ctx context.Context, limit int) ([]models.Participant, error) {
	if limit <= 0 {
		limit = 100
	}
	var participants []models.Participant
	err := r.db.WithContext(ctx).
		Where("payment_status = ? AND receipt_sent_at IS NULL", models.PaymentStatusPaid).
		Order("updated_at ASC").
		Limit(limit).
		Find(&participants).Error
	return participants, err
}
