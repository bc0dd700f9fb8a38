package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/EventPay/app/models"
	"github.com/ManuelReschke/EventPay/internal/pkg/receipt"
)

func paidParticipant() *models.Participant {
	p := unpaid("p-1", "abc123")
	p.PaymentStatus = models.PaymentStatusPaid
	return p
}

func TestRunBestEffort_IsolatesFailures(t *testing.T) {
	var ran []string
	outcomes := RunBestEffort(context.Background(),
		Task{Name: "a", Run: func(context.Context) error { ran = append(ran, "a"); return errors.New("boom") }},
		Task{Name: "b", Run: func(context.Context) error { ran = append(ran, "b"); panic("bad") }},
		Task{Name: "c", Run: func(context.Context) error { ran = append(ran, "c"); return nil }},
	)

	assert.Equal(t, []string{"a", "b", "c"}, ran)
	require.Len(t, outcomes, 3)

	var seErr *SideEffectError
	require.True(t, errors.As(outcomes[0].Err, &seErr))
	assert.Equal(t, "a", seErr.Task)
	require.True(t, errors.As(outcomes[1].Err, &seErr))
	assert.Contains(t, seErr.Error(), "panic")
	assert.NoError(t, outcomes[2].Err)
}

func TestDispatch_ReceiptFailureStillNotifies(t *testing.T) {
	participants := newFakeParticipants(paidParticipant())
	gen := &fakeGenerator{panic: true}
	sender := &fakeSender{}
	op := &fakeOperator{}
	d := NewDispatcher(participants, &fakeSettings{}, receipt.NewLocator(""),
		WithReceiptGenerator(gen), WithMessageSender(sender), WithOperatorNotifier(op))

	outcomes := d.Dispatch(context.Background(), ptr(participants.get("p-1")))
	require.Len(t, outcomes, 3)
	assert.Error(t, outcomes[0].Err)
	assert.NoError(t, outcomes[1].Err)
	assert.NoError(t, outcomes[2].Err)
	assert.Len(t, sender.sent, 1)
	assert.Len(t, op.alerts, 1)
}

func TestDispatch_UsesTemplateSetting(t *testing.T) {
	participants := newFakeParticipants(paidParticipant())
	sender := &fakeSender{}
	settings := &fakeSettings{values: map[string]string{
		models.SettingWhatsAppTemplate: "Halo! Kwitansi: {{receipt_url}} sampai jumpa",
	}}
	d := NewDispatcher(participants, settings, receipt.NewLocator("https://x.test"), WithMessageSender(sender))

	d.Dispatch(context.Background(), ptr(participants.get("p-1")))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Halo! Kwitansi: https://x.test/receipts/p-1.html sampai jumpa", sender.sent[0].Text)
}

func TestDispatch_SendFailureLeavesReceiptUnsent(t *testing.T) {
	participants := newFakeParticipants(paidParticipant())
	sender := &fakeSender{err: errors.New("whatsapp down")}
	d := NewDispatcher(participants, nil, receipt.NewLocator(""), WithMessageSender(sender))

	outcomes := d.Dispatch(context.Background(), ptr(participants.get("p-1")))
	require.Len(t, outcomes, 1)
	assert.Error(t, outcomes[0].Err)
	assert.Nil(t, participants.get("p-1").ReceiptSentAt)
}

func TestDispatch_MissingNumber(t *testing.T) {
	p := paidParticipant()
	p.WhatsApp = " "
	d := NewDispatcher(newFakeParticipants(p), nil, receipt.NewLocator(""), WithMessageSender(&fakeSender{}))

	outcomes := d.Dispatch(context.Background(), p)
	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, ErrNoWhatsAppNumber)
}

func TestDispatch_AsyncOutlivesCallerContext(t *testing.T) {
	participants := newFakeParticipants(paidParticipant())
	sender := &fakeSender{}
	d := NewDispatcher(participants, nil, receipt.NewLocator(""), WithMessageSender(sender), WithAsync(time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	assert.Nil(t, d.Dispatch(ctx, ptr(participants.get("p-1"))))
	cancel()
	d.Wait()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Len(t, sender.sent, 1)
}

func TestRedeliver_SkipsOperator(t *testing.T) {
	participants := newFakeParticipants(paidParticipant())
	op := &fakeOperator{}
	d := NewDispatcher(participants, nil, receipt.NewLocator(""),
		WithReceiptGenerator(&fakeGenerator{}), WithMessageSender(&fakeSender{}), WithOperatorNotifier(op))

	outcomes := d.Redeliver(context.Background(), ptr(participants.get("p-1")))
	require.Len(t, outcomes, 2)
	assert.Empty(t, op.alerts)
}
