package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EventPay/app/models"
	"github.com/ManuelReschke/EventPay/app/repository"
	"github.com/ManuelReschke/EventPay/internal/pkg/payment"
	"github.com/ManuelReschke/EventPay/internal/pkg/paymentqueue"
	"github.com/ManuelReschke/EventPay/internal/pkg/receipt"
	"github.com/ManuelReschke/EventPay/internal/pkg/xendit"
)

func TestPaymentErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{payment.ErrMissingSignature, fiber.StatusUnauthorized},
		{payment.ErrInvalidSignature, fiber.StatusUnauthorized},
		{&payment.ValidationError{Field: "status", Reason: "required"}, fiber.StatusBadRequest},
		{fmt.Errorf("x: %w", payment.ErrInvalidStatus), fiber.StatusBadRequest},
		{fmt.Errorf("x: %w", payment.ErrParticipantNotFound), fiber.StatusNotFound},
		{payment.ErrPaymentAlreadyAssigned, fiber.StatusConflict},
		{payment.ErrNotPaid, fiber.StatusConflict},
		{payment.ErrConcurrentUpdate, fiber.StatusInternalServerError},
		{&payment.StoreError{Op: "x", Err: errors.New("down")}, fiber.StatusInternalServerError},
		{fmt.Errorf("create: %w", &xendit.APIError{StatusCode: 400}), fiber.StatusBadGateway},
		{errors.New("unknown"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, _ := paymentErrorStatus(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
	}
}

type stubInvoices struct {
	result *payment.InvoiceResult
	err    error
}

func (s stubInvoices) CreateInvoice(context.Context, string) (*payment.InvoiceResult, error) {
	return s.result, s.err
}

type stubSweeper struct {
	report *paymentqueue.SweepReport
	calls  int
}

func (s *stubSweeper) SweepOnce(context.Context) (*paymentqueue.SweepReport, error) {
	s.calls++
	return s.report, nil
}

type adminFixture struct {
	app          *fiber.App
	participants *memParticipantRepo
	queue        *memQueueRepo
	history      *memHistoryRepo
	sender       *recordingSender
	sweeper      *stubSweeper
}

func newAdminFixture(invoices InvoiceCreator, ps ...*models.Participant) *adminFixture {
	f := &adminFixture{
		participants: newMemParticipantRepo(ps...),
		queue:        &memQueueRepo{},
		history:      &memHistoryRepo{},
		sender:       &recordingSender{},
		sweeper:      &stubSweeper{report: &paymentqueue.SweepReport{Due: 2, Processed: 1, Pending: 1}},
	}
	repos := &repository.Repositories{
		Participant:    f.participants,
		PaymentHistory: f.history,
		PaymentQueue:   f.queue,
		Setting:        memSettingRepo{},
	}
	dispatcher := payment.NewDispatcher(f.participants, memSettingRepo{}, receipt.NewLocator(""), payment.WithMessageSender(f.sender))
	ctrl := NewAdminPaymentController(invoices, payment.NewResender(f.participants, dispatcher), f.sweeper, repos, 3)

	f.app = fiber.New()
	f.app.Post("/participants/:id/invoice", ctrl.HandleCreateInvoice)
	f.app.Post("/participants/:id/resend-receipt", ctrl.HandleResendReceipt)
	f.app.Get("/participants/undelivered", ctrl.HandleListUndelivered)
	f.app.Get("/payment-queue", ctrl.HandleListQueue)
	f.app.Post("/payment-queue/sweep", ctrl.HandleTriggerSweep)
	f.app.Get("/payments/:payment_id/history", ctrl.HandlePaymentHistory)
	return f
}

func TestAdmin_CreateInvoice(t *testing.T) {
	f := newAdminFixture(stubInvoices{result: &payment.InvoiceResult{ParticipantID: "p-1", PaymentID: "inv-1"}})
	code, body := doRequest(t, f.app, httptest.NewRequest(http.MethodPost, "/participants/p-1/invoice", nil))
	assert.Equal(t, fiber.StatusCreated, code)
	assert.Equal(t, "inv-1", body["invoice"].(map[string]any)["payment_id"])

	f = newAdminFixture(stubInvoices{err: payment.ErrPaymentAlreadyAssigned})
	code, body = doRequest(t, f.app, httptest.NewRequest(http.MethodPost, "/participants/p-1/invoice", nil))
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "payment_already_assigned", body["error"])
}

func TestAdmin_ResendReceipt(t *testing.T) {
	paid := unpaidParticipant("p-1", "abc123")
	paid.PaymentStatus = models.PaymentStatusPaid
	f := newAdminFixture(stubInvoices{}, paid, unpaidParticipant("p-2", "def456"))

	code, body := doRequest(t, f.app, httptest.NewRequest(http.MethodGet, "/participants/undelivered", nil))
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, body["participants"], 1)

	code, body = doRequest(t, f.app, httptest.NewRequest(http.MethodPost, "/participants/p-1/resend-receipt", nil))
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 1, f.sender.count())
	assert.NotNil(t, f.participants.snapshot("p-1").ReceiptSentAt)

	code, body = doRequest(t, f.app, httptest.NewRequest(http.MethodPost, "/participants/p-2/resend-receipt", nil))
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "participant_not_paid", body["error"])
}

func TestAdmin_QueueAndSweep(t *testing.T) {
	f := newAdminFixture(stubInvoices{})
	require.NoError(t, f.queue.Enqueue(context.Background(), &models.PaymentQueueItem{PaymentID: "inv-1", Status: models.PaymentQueueStatusPending, RetryCount: 4}))
	require.NoError(t, f.queue.Enqueue(context.Background(), &models.PaymentQueueItem{PaymentID: "inv-2", Status: models.PaymentQueueStatusPending}))

	code, body := doRequest(t, f.app, httptest.NewRequest(http.MethodGet, "/payment-queue?limit=10", nil))
	assert.Equal(t, fiber.StatusOK, code)
	items := body["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, true, items[0].(map[string]any)["abandoned"])
	assert.Equal(t, false, items[1].(map[string]any)["abandoned"])

	code, body = doRequest(t, f.app, httptest.NewRequest(http.MethodPost, "/payment-queue/sweep", nil))
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, 1, f.sweeper.calls)
	assert.Equal(t, float64(1), body["report"].(map[string]any)["processed"])
}

func TestAdmin_PaymentHistory(t *testing.T) {
	f := newAdminFixture(stubInvoices{})
	require.NoError(t, f.history.Append(context.Background(), &models.PaymentHistory{PaymentID: "abc123", Status: "PAID", Notes: "[webhook] applied"}))
	require.NoError(t, f.history.Append(context.Background(), &models.PaymentHistory{PaymentID: "other", Status: "PAID"}))

	code, body := doRequest(t, f.app, httptest.NewRequest(http.MethodGet, "/payments/abc123/history", nil))
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, body["history"], 1)
}
