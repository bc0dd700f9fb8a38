package payment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EventPay/app/models"
	"github.com/ManuelReschke/EventPay/app/repository"
	"github.com/ManuelReschke/EventPay/internal/pkg/receipt"
)

const (
	TaskReceipt      = "receipt"
	TaskNotification = "notification"
	TaskOperator     = "operator"

	// Operator alert kinds.
	AlertPaymentPaid    = "payment.paid"
	AlertPaymentCreated = "payment.created"

	DefaultDispatchTimeout = 2 * time.Minute
)

var ErrNoWhatsAppNumber = errors.New("participant has no whatsapp number")

type ReceiptGenerator interface {
	Generate(ctx context.Context, participant *models.Participant) error
}

type MessageSender interface {
	SendText(ctx context.Context, to, text string) error
}

type OperatorNotifier interface {
	NotifyOperator(ctx context.Context, kind string, data map[string]any) error
}

// SideEffects is what the reconciler hands a freshly paid participant to.
type SideEffects interface {
	Dispatch(ctx context.Context, participant *models.Participant) []TaskOutcome
}

type DispatcherOption func(*Dispatcher)

// WithAsync detaches each dispatch from the caller. Outcomes are then only logged.
func WithAsync(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.async = true
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func WithReceiptGenerator(g ReceiptGenerator) DispatcherOption {
	return func(d *Dispatcher) { d.receipts = g }
}

func WithMessageSender(s MessageSender) DispatcherOption {
	return func(d *Dispatcher) { d.sender = s }
}

func WithOperatorNotifier(n OperatorNotifier) DispatcherOption {
	return func(d *Dispatcher) { d.operator = n }
}

// Dispatcher runs the receipt, notification and operator side effects of a
// confirmed payment. Unconfigured collaborators are skipped.
type Dispatcher struct {
	participants repository.ParticipantRepository
	settings     repository.SettingRepository
	locator      receipt.Locator

	receipts ReceiptGenerator
	sender   MessageSender
	operator OperatorNotifier

	async   bool
	timeout time.Duration
	wg      sync.WaitGroup
	now     func() time.Time
}

func NewDispatcher(participants repository.ParticipantRepository, settings repository.SettingRepository, locator receipt.Locator, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		participants: participants,
		settings:     settings,
		locator:      locator,
		timeout:      DefaultDispatchTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs all side effects for participant. In async mode it returns nil
// immediately and the work continues on its own context.
func (d *Dispatcher) Dispatch(ctx context.Context, participant *models.Participant) []TaskOutcome {
	if participant == nil {
		return nil
	}
	p := *participant
	tasks := d.tasks(&p, true)

	if !d.async {
		return RunBestEffort(ctx, tasks...)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		outcomes := RunBestEffort(runCtx, tasks...)
		log.Infof("[Dispatcher] Finished side effects for participant %s: %s", p.ID, summarize(outcomes))
	}()
	return nil
}

// Redeliver runs only the receipt and notification tasks.
func (d *Dispatcher) Redeliver(ctx context.Context, participant *models.Participant) []TaskOutcome {
	if participant == nil {
		return nil
	}
	p := *participant
	return RunBestEffort(ctx, d.tasks(&p, false)...)
}

// Wait blocks until all detached dispatches have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) tasks(p *models.Participant, withOperator bool) []Task {
	var tasks []Task
	if d.receipts != nil {
		tasks = append(tasks, Task{Name: TaskReceipt, Run: func(ctx context.Context) error {
			return d.receipts.Generate(ctx, p)
		}})
	}
	if d.sender != nil {
		tasks = append(tasks, Task{Name: TaskNotification, Run: func(ctx context.Context) error {
			return d.notify(ctx, p)
		}})
	}
	if withOperator && d.operator != nil {
		tasks = append(tasks, Task{Name: TaskOperator, Run: func(ctx context.Context) error {
			return d.operator.NotifyOperator(ctx, AlertPaymentPaid, map[string]any{
				"payment_id":     p.PaymentRef(),
				"participant_id": p.ID,
				"customer_name":  p.Name,
				"amount":         p.Price,
				"receipt_url":    d.receiptURL(p),
			})
		}})
	}
	return tasks
}

func (d *Dispatcher) notify(ctx context.Context, p *models.Participant) error {
	if strings.TrimSpace(p.WhatsApp) == "" {
		return ErrNoWhatsAppNumber
	}

	template := ""
	if d.settings != nil {
		value, err := d.settings.GetValue(ctx, models.SettingWhatsAppTemplate)
		if err != nil {
			log.Warnf("[Dispatcher] Failed to load whatsapp template, using default: %v", err)
		} else {
			template = value
		}
	}

	text := models.RenderReceiptMessage(template, d.receiptURL(p))
	if err := d.sender.SendText(ctx, p.WhatsApp, text); err != nil {
		return err
	}

	if d.participants != nil {
		if err := d.participants.MarkReceiptSent(ctx, p.ID, d.now().UTC()); err != nil {
			log.Errorf("[Dispatcher] Receipt sent to participant %s but delivery time not stored: %v", p.ID, err)
		}
	}
	return nil
}

func (d *Dispatcher) receiptURL(p *models.Participant) string {
	if p.ReceiptURL != "" {
		return p.ReceiptURL
	}
	return d.locator.ReceiptURL(p.ID)
}

func summarize(outcomes []TaskOutcome) string {
	if len(outcomes) == 0 {
		return "no tasks"
	}
	parts := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			parts = append(parts, o.Name+"=failed")
		} else {
			parts = append(parts, o.Name+"=ok")
		}
	}
	return strings.Join(parts, " ")
}
