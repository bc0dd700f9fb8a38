package payment

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ManuelReschke/EventPay/app/models"
	"github.com/ManuelReschke/EventPay/app/repository"
)

const defaultUndeliveredLimit = 100

// Resender re-delivers receipts to paid participants. It never changes a payment status.
type Resender struct {
	participants repository.ParticipantRepository
	dispatcher   *Dispatcher
}

func NewResender(participants repository.ParticipantRepository, dispatcher *Dispatcher) *Resender {
	return &Resender{participants: participants, dispatcher: dispatcher}
}

func (r *Resender) Resend(ctx context.Context, participantID string) ([]TaskOutcome, error) {
	participant, err := r.participants.GetByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("participant %s: %w", participantID, ErrParticipantNotFound)
		}
		return nil, &StoreError{Op: "load participant", Err: err}
	}
	if participant.PaymentStatus != models.PaymentStatusPaid {
		return nil, fmt.Errorf("participant %s is %s: %w", participantID, participant.PaymentStatus, ErrNotPaid)
	}
	return r.dispatcher.Redeliver(ctx, participant), nil
}

// ListUndelivered returns paid participants whose receipt was never delivered.
func (r *Resender) ListUndelivered(ctx context.Context, limit int) ([]models.Participant, error) {
	if limit <= 0 {
		limit = defaultUndeliveredLimit
	}
	list, err := r.participants.ListPaidWithoutReceipt(ctx, limit)
	if err != nil {
		return nil, &StoreError{Op: "list undelivered", Err: err}
	}
	return list, nil
}
