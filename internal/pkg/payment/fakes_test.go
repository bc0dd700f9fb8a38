package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/EventPay/app/models"
	"github.com/ManuelReschke/EventPay/app/repository"
	"github.com/ManuelReschke/EventPay/internal/pkg/xendit"
)

var errStoreDown = errors.New("connection refused")

type fakeParticipants struct {
	mu     sync.Mutex
	byID   map[string]*models.Participant
	getErr error
	casErr error
	// beforeCAS runs while the lock is held, simulating a concurrent writer.
	beforeCAS func(p *models.Participant)
	casCalls  int
	swaps     int
}

func newFakeParticipants(ps ...*models.Participant) *fakeParticipants {
	f := &fakeParticipants{byID: make(map[string]*models.Participant)}
	for _, p := range ps {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeParticipants) GetByID(_ context.Context, id string) (*models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeParticipants) GetByPaymentID(_ context.Context, paymentID string) (*models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, p := range f.byID {
		if p.PaymentRef() == paymentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeParticipants) CompareAndSwapStatus(_ context.Context, paymentID string, change repository.StatusChange) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.casCalls++
	if f.casErr != nil {
		return false, f.casErr
	}
	for _, p := range f.byID {
		if p.PaymentRef() != paymentID {
			continue
		}
		if f.beforeCAS != nil {
			f.beforeCAS(p)
		}
		if p.PaymentStatus != change.From {
			return false, nil
		}
		p.PaymentStatus = change.To
		p.UpdatedAt = change.At
		if change.To == models.PaymentStatusPaid {
			p.ReceiptURL = change.ReceiptURL
			p.BarcodeURL = change.BarcodeURL
		}
		f.swaps++
		return true, nil
	}
	return false, nil
}

func (f *fakeParticipants) AssignPaymentID(_ context.Context, participantID, paymentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[participantID]
	if !ok || p.HasPaymentID() {
		return false, nil
	}
	p.PaymentID = &paymentID
	return true, nil
}

func (f *fakeParticipants) MarkReceiptSent(_ context.Context, participantID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byID[participantID]; ok {
		p.ReceiptSentAt = &at
	}
	return nil
}

func (f *fakeParticipants) ListPaidWithoutReceipt(_ context.Context, limit int) ([]models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Participant
	for _, p := range f.byID {
		if p.PaymentStatus == models.PaymentStatusPaid && p.ReceiptSentAt == nil && len(out) < limit {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeParticipants) get(id string) models.Participant {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id]
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []models.PaymentHistory
	err     error
}

func (f *fakeHistory) Append(_ context.Context, entry *models.PaymentHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeHistory) ListByPaymentID(_ context.Context, paymentID string) ([]models.PaymentHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PaymentHistory
	for _, e := range f.entries {
		if e.PaymentID == paymentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeHistory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type fakeQueue struct {
	mu        sync.Mutex
	items     []*models.PaymentQueueItem
	processed []string
	err       error
}

func (f *fakeQueue) Enqueue(_ context.Context, item *models.PaymentQueueItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	item.ID = uint(len(f.items) + 1)
	f.items = append(f.items, item)
	return nil
}

func (f *fakeQueue) ListDue(_ context.Context, maxRetries int) ([]models.PaymentQueueItem, error) {
	return nil, nil
}

func (f *fakeQueue) MarkProcessed(_ context.Context, id uint) error { return nil }

func (f *fakeQueue) MarkProcessedByPaymentID(_ context.Context, paymentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.processed = append(f.processed, paymentID)
	return nil
}

func (f *fakeQueue) RecordFailure(_ context.Context, id uint, errMsg string) error { return nil }

func (f *fakeQueue) List(_ context.Context, offset, limit int) ([]models.PaymentQueueItem, error) {
	return nil, nil
}

type fakeSettings struct {
	values map[string]string
	err    error
}

func (f *fakeSettings) GetValue(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.values[key], nil
}

func (f *fakeSettings) SetValue(_ context.Context, key, value string) error {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value
	return nil
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
	panic bool
}

func (f *fakeGenerator) Generate(_ context.Context, _ *models.Participant) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.panic {
		panic("renderer exploded")
	}
	return f.err
}

type sentMessage struct {
	To   string
	Text string
}

type fakeSender struct {
	mu    sync.Mutex
	sent  []sentMessage
	err   error
	panic bool
}

func (f *fakeSender) SendText(_ context.Context, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panic {
		panic("gateway client exploded")
	}
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{To: to, Text: text})
	return nil
}

type fakeOperator struct {
	mu     sync.Mutex
	alerts []string
	err    error
}

func (f *fakeOperator) NotifyOperator(_ context.Context, kind string, _ map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, kind)
	return f.err
}

type fakeGateway struct {
	invoice *xendit.Invoice
	err     error
	reqs    []xendit.InvoiceRequest
}

func (f *fakeGateway) CreateInvoice(_ context.Context, req xendit.InvoiceRequest) (*xendit.Invoice, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.invoice, nil
}

func strPtr(s string) *string { return &s }

func ptr(p models.Participant) *models.Participant { return &p }
