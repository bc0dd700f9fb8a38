package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	subject string
	data    []byte
	err     error
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	p.subject = subject
	p.data = data
	return p.err
}

type recordingMailer struct {
	to, subject, body string
}

func (m *recordingMailer) SendMail(to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return nil
}

type failingNotifier struct{}

func (failingNotifier) NotifyOperator(context.Context, string, map[string]any) error {
	return errors.New("channel down")
}

func TestNATSNotifier(t *testing.T) {
	pub := &recordingPublisher{}
	n := NewNATSNotifier(pub, "")

	require.NoError(t, n.NotifyOperator(context.Background(), "payment.paid", map[string]any{"payment_id": "abc123"}))
	assert.Equal(t, DefaultSubject, pub.subject)

	var alert Alert
	require.NoError(t, json.Unmarshal(pub.data, &alert))
	assert.Equal(t, "payment.paid", alert.Kind)
	assert.Equal(t, "abc123", alert.Data["payment_id"])
	assert.False(t, alert.Timestamp.IsZero())
}

func TestMailNotifier(t *testing.T) {
	m := &recordingMailer{}
	n := NewMailNotifier(m, "ops@race.test")

	require.NoError(t, n.NotifyOperator(context.Background(), "payment.paid", map[string]any{"customer_name": "<Budi>"}))
	assert.Equal(t, "ops@race.test", m.to)
	assert.Equal(t, "[EventPay] payment.paid", m.subject)
	assert.Contains(t, m.body, "&lt;Budi&gt;")
}

func TestMulti_ContinuesAfterFailure(t *testing.T) {
	pub := &recordingPublisher{}
	multi := Multi{failingNotifier{}, NewNATSNotifier(pub, "ops"), LogNotifier{}}

	err := multi.NotifyOperator(context.Background(), "payment.created", nil)
	assert.ErrorContains(t, err, "channel down")
	assert.Equal(t, "ops", pub.subject)
}
