// Package notify delivers operator alerts about payments.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/nats-io/nats.go"

	"github.com/ManuelReschke/EventPay/internal/pkg/env"
)

const DefaultSubject = "eventpay.operator"

type Notifier interface {
	NotifyOperator(ctx context.Context, kind string, data map[string]any) error
}

// Alert is the message published for an operator event.
type Alert struct {
	Kind      string         `json:"kind"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

type Config struct {
	NATSURL       string
	Subject       string
	OperatorEmail string
}

func LoadConfig() Config {
	return Config{
		NATSURL:       env.GetEnv("NATS_URL", ""),
		Subject:       env.GetEnv("NATS_OPERATOR_SUBJECT", DefaultSubject),
		OperatorEmail: env.GetEnv("OPERATOR_EMAIL", ""),
	}
}

type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier publishes alerts as JSON on a subject.
type NATSNotifier struct {
	pub     Publisher
	subject string
}

func NewNATSNotifier(pub Publisher, subject string) *NATSNotifier {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSNotifier{pub: pub, subject: subject}
}

// ConnectNATS dials the server with reconnects enabled.
func ConnectNATS(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("eventpay"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("[Notify] NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Infof("[Notify] NATS reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return conn, nil
}

func (n *NATSNotifier) NotifyOperator(_ context.Context, kind string, data map[string]any) error {
	payload, err := json.Marshal(Alert{Kind: kind, Data: data, Timestamp: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	if err := n.pub.Publish(n.subject, payload); err != nil {
		return fmt.Errorf("publish alert %s: %w", kind, err)
	}
	return nil
}

type Mailer interface {
	SendMail(to, subject, body string) error
}

// MailNotifier mails alerts to the operator address.
type MailNotifier struct {
	mailer Mailer
	to     string
}

func NewMailNotifier(mailer Mailer, to string) *MailNotifier {
	return &MailNotifier{mailer: mailer, to: to}
}

func (m *MailNotifier) NotifyOperator(ctx context.Context, kind string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.mailer.SendMail(m.to, "[EventPay] "+kind, renderBody(kind, data))
}

func renderBody(kind string, data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("<h3>" + html.EscapeString(kind) + "</h3><table>")
	for _, k := range keys {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td></tr>", html.EscapeString(k), html.EscapeString(fmt.Sprint(data[k])))
	}
	b.WriteString("</table>")
	return b.String()
}

// LogNotifier writes alerts to the application log.
type LogNotifier struct{}

func (LogNotifier) NotifyOperator(_ context.Context, kind string, data map[string]any) error {
	log.Infof("[Notify] Operator alert %s: %v", kind, data)
	return nil
}

// Multi fans an alert out to every channel and joins their errors.
type Multi []Notifier

func (m Multi) NotifyOperator(ctx context.Context, kind string, data map[string]any) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyOperator(ctx, kind, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
