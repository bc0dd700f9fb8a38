package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/EventPay/app/models"
	"github.com/ManuelReschke/EventPay/app/repository"
	"github.com/ManuelReschke/EventPay/internal/pkg/metrics"
	"github.com/ManuelReschke/EventPay/internal/pkg/receipt"
)

// Audit note flags.
const (
	NoteApplied   = "applied"
	NoteDuplicate = "duplicate"
	NoteIgnored   = "ignored"
)

// Event is a payment status observation from the gateway.
type Event struct {
	PaymentID  string
	Status     string
	Source     Source
	Note       string
	RawPayload []byte
}

type Result struct {
	ParticipantID string
	Status        models.PaymentStatus
	Changed       bool
}

// Reconciler is the only writer of a participant's payment status.
type Reconciler struct {
	participants repository.ParticipantRepository
	queue        repository.PaymentQueueRepository
	auditor      *Auditor
	effects      SideEffects
	locator      receipt.Locator
	now          func() time.Time
}

// NewReconciler wires the reconciler. queue and effects may be nil.
func NewReconciler(participants repository.ParticipantRepository, queue repository.PaymentQueueRepository, auditor *Auditor, effects SideEffects, locator receipt.Locator) *Reconciler {
	return &Reconciler{
		participants: participants,
		queue:        queue,
		auditor:      auditor,
		effects:      effects,
		locator:      locator,
		now:          time.Now,
	}
}

// Reconcile applies ev to the participant owning ev.PaymentID. Every call
// writes exactly one audit entry. Replays of an applied event are no-ops.
func (r *Reconciler) Reconcile(ctx context.Context, ev Event) (*Result, error) {
	if ev.Source == "" {
		ev.Source = SourceWebhook
	}
	ev.PaymentID = strings.TrimSpace(ev.PaymentID)
	if ev.PaymentID == "" {
		metrics.ObserveReconcile(string(ev.Source), "invalid")
		return nil, &ValidationError{Field: "payment_id", Reason: "is required"}
	}

	status, ok := models.ParsePaymentStatus(ev.Status)
	if !ok {
		r.audit(ctx, ev, auditStatus(ev.Status), "error: "+ErrInvalidStatus.Error())
		metrics.ObserveReconcile(string(ev.Source), "invalid_status")
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, ev.Status)
	}

	participant, err := r.participants.GetByPaymentID(ctx, ev.PaymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.audit(ctx, ev, status.String(), "error: "+ErrParticipantNotFound.Error())
			metrics.ObserveReconcile(string(ev.Source), "not_found")
			return nil, fmt.Errorf("payment %s: %w", ev.PaymentID, ErrParticipantNotFound)
		}
		return nil, r.storeFailure(ctx, ev, status, "lookup participant", err)
	}

	current := participant.PaymentStatus
	if current == status {
		return r.noop(ctx, ev, participant, status, NoteDuplicate), nil
	}
	if current == models.PaymentStatusPaid {
		return r.noop(ctx, ev, participant, current, NoteIgnored), nil
	}

	change := repository.StatusChange{From: current, To: status, At: r.now().UTC()}
	if status == models.PaymentStatusPaid {
		change.ReceiptURL = r.locator.ReceiptURL(participant.ID)
		change.BarcodeURL = r.locator.BarcodeURL(participant.ID)
	}

	swapped, err := r.participants.CompareAndSwapStatus(ctx, ev.PaymentID, change)
	if err != nil {
		return nil, r.storeFailure(ctx, ev, status, "update status", err)
	}
	if !swapped {
		latest, err := r.participants.GetByPaymentID(ctx, ev.PaymentID)
		if err != nil {
			return nil, r.storeFailure(ctx, ev, status, "reload participant", err)
		}
		if latest.PaymentStatus == status {
			return r.noop(ctx, ev, latest, status, NoteDuplicate), nil
		}
		r.audit(ctx, ev, status.String(), "error: "+ErrConcurrentUpdate.Error())
		metrics.ObserveReconcile(string(ev.Source), "conflict")
		return nil, fmt.Errorf("payment %s %s -> %s: %w", ev.PaymentID, current, status, ErrConcurrentUpdate)
	}

	log.Infof("[Reconciler] Payment %s for participant %s: %s -> %s (%s)", ev.PaymentID, participant.ID, current, status, ev.Source)
	r.audit(ctx, ev, status.String(), NoteApplied)
	metrics.ObserveReconcile(string(ev.Source), "applied")

	participant.PaymentStatus = status
	participant.UpdatedAt = change.At
	if status == models.PaymentStatusPaid {
		participant.ReceiptURL = change.ReceiptURL
		participant.BarcodeURL = change.BarcodeURL
	}

	r.markProcessed(ctx, ev.PaymentID, status)
	if status == models.PaymentStatusPaid && r.effects != nil {
		r.effects.Dispatch(ctx, participant)
	}

	return &Result{ParticipantID: participant.ID, Status: status, Changed: true}, nil
}

// Reject audits an authenticated event that could not be parsed or validated.
// Events without a payment id are keyed by the ERROR history status.
func (r *Reconciler) Reject(ctx context.Context, ev Event, cause error) {
	if ev.Source == "" {
		ev.Source = SourceWebhook
	}
	ev.PaymentID = strings.TrimSpace(ev.PaymentID)
	if ev.PaymentID == "" {
		ev.PaymentID = models.HistoryStatusError
	}
	reason := "rejected"
	if cause != nil {
		reason = cause.Error()
	}
	r.audit(ctx, ev, auditStatus(ev.Status), "error: "+reason)
	metrics.ObserveReconcile(string(ev.Source), "invalid")
}

func (r *Reconciler) noop(ctx context.Context, ev Event, p *models.Participant, status models.PaymentStatus, flag string) *Result {
	observed, _ := models.ParsePaymentStatus(ev.Status)
	r.audit(ctx, ev, observed.String(), flag)
	metrics.ObserveReconcile(string(ev.Source), flag)
	log.Debugf("[Reconciler] Payment %s already %s, event %s marked %s", ev.PaymentID, p.PaymentStatus, observed, flag)
	r.markProcessed(ctx, ev.PaymentID, status)
	return &Result{ParticipantID: p.ID, Status: status, Changed: false}
}

func (r *Reconciler) storeFailure(ctx context.Context, ev Event, status models.PaymentStatus, op string, err error) error {
	storeErr := &StoreError{Op: op, Err: err}
	r.audit(ctx, ev, status.String(), "error: "+storeErr.Error())
	metrics.ObserveReconcile(string(ev.Source), "store_error")
	log.Errorf("[Reconciler] Payment %s: %v", ev.PaymentID, storeErr)
	return storeErr
}

func (r *Reconciler) markProcessed(ctx context.Context, paymentID string, status models.PaymentStatus) {
	if r.queue == nil || !status.IsTerminal() {
		return
	}
	if err := r.queue.MarkProcessedByPaymentID(ctx, paymentID); err != nil {
		log.Warnf("[Reconciler] Failed to mark queue item for payment %s processed: %v", paymentID, err)
	}
}

func (r *Reconciler) audit(ctx context.Context, ev Event, status, flag string) {
	note := fmt.Sprintf("[%s] %s", ev.Source, flag)
	if ev.Note != "" {
		note += ": " + ev.Note
	}
	r.auditor.Append(ctx, ev.PaymentID, status, note, ev.RawPayload)
}

func auditStatus(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return models.HistoryStatusError
	}
	return s
}
