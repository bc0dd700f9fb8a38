package controllers

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/EventPay/app/models"
	"github.com/ManuelReschke/EventPay/app/repository"
)

type memParticipantRepo struct {
	mu     sync.Mutex
	rows   map[string]*models.Participant
	err    error
	writes int
}

func newMemParticipantRepo(ps ...*models.Participant) *memParticipantRepo {
	r := &memParticipantRepo{rows: map[string]*models.Participant{}}
	for _, p := range ps {
		r.rows[p.ID] = p
	}
	return r
}

func (r *memParticipantRepo) GetByID(_ context.Context, id string) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memParticipantRepo) GetByPaymentID(_ context.Context, paymentID string) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, p := range r.rows {
		if p.PaymentRef() == paymentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memParticipantRepo) CompareAndSwapStatus(_ context.Context, paymentID string, change repository.StatusChange) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.PaymentRef() == paymentID && p.PaymentStatus == change.From {
			p.PaymentStatus = change.To
			if change.To == models.PaymentStatusPaid {
				p.ReceiptURL = change.ReceiptURL
				p.BarcodeURL = change.BarcodeURL
			}
			r.writes++
			return true, nil
		}
	}
	return false, nil
}

func (r *memParticipantRepo) AssignPaymentID(_ context.Context, participantID, paymentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[participantID]
	if !ok || p.HasPaymentID() {
		return false, nil
	}
	p.PaymentID = &paymentID
	r.writes++
	return true, nil
}

func (r *memParticipantRepo) MarkReceiptSent(_ context.Context, participantID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.rows[participantID]; ok {
		p.ReceiptSentAt = &at
		r.writes++
	}
	return nil
}

func (r *memParticipantRepo) ListPaidWithoutReceipt(_ context.Context, limit int) ([]models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Participant
	for _, p := range r.rows {
		if p.PaymentStatus == models.PaymentStatusPaid && p.ReceiptSentAt == nil && len(out) < limit {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memParticipantRepo) snapshot(id string) models.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.rows[id]
}

type memHistoryRepo struct {
	mu      sync.Mutex
	entries []models.PaymentHistory
}

func (r *memHistoryRepo) Append(_ context.Context, e *models.PaymentHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = uint(len(r.entries) + 1)
	r.entries = append(r.entries, *e)
	return nil
}

func (r *memHistoryRepo) ListByPaymentID(_ context.Context, paymentID string) ([]models.PaymentHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PaymentHistory
	for _, e := range r.entries {
		if e.PaymentID == paymentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memHistoryRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

type memQueueRepo struct {
	mu    sync.Mutex
	items []models.PaymentQueueItem
}

func (r *memQueueRepo) Enqueue(_ context.Context, item *models.PaymentQueueItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = uint(len(r.items) + 1)
	r.items = append(r.items, *item)
	return nil
}

func (r *memQueueRepo) ListDue(_ context.Context, maxRetries int) ([]models.PaymentQueueItem, error) {
	return nil, nil
}

func (r *memQueueRepo) MarkProcessed(_ context.Context, id uint) error { return nil }

func (r *memQueueRepo) MarkProcessedByPaymentID(_ context.Context, paymentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].PaymentID == paymentID {
			r.items[i].Status = models.PaymentQueueStatusProcessed
		}
	}
	return nil
}

func (r *memQueueRepo) RecordFailure(_ context.Context, id uint, errMsg string) error { return nil }

func (r *memQueueRepo) List(_ context.Context, offset, limit int) ([]models.PaymentQueueItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if offset >= len(r.items) {
		return nil, nil
	}
	end := offset + limit
	if end > len(r.items) {
		end = len(r.items)
	}
	return append([]models.PaymentQueueItem(nil), r.items[offset:end]...), nil
}

type memSettingRepo struct{}

func (memSettingRepo) GetValue(context.Context, string) (string, error) { return "", nil }
func (memSettingRepo) SetValue(context.Context, string, string) error   { return nil }

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *recordingSender) SendText(_ context.Context, to, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to+"|"+text)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}
