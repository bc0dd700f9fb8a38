// Package paymentqueue re-checks pending invoices with the gateway in case a
// webhook never arrived.
package paymentqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EventPay/app/models"
	"github.com/ManuelReschke/EventPay/app/repository"
	"github.com/ManuelReschke/EventPay/internal/pkg/metrics"
	"github.com/ManuelReschke/EventPay/internal/pkg/payment"
)

type Gateway interface {
	GetInvoiceStatus(ctx context.Context, invoiceID string) (string, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, ev payment.Event) (*payment.Result, error)
}

type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Option func(*Poller)

func WithScheduler(s Scheduler) Option {
	return func(p *Poller) { p.scheduler = s }
}

func WithLease(l Lease) Option {
	return func(p *Poller) { p.lease = l }
}

// SweepReport summarises one pass over the due queue items.
type SweepReport struct {
	Due       int           `json:"due"`
	Processed int           `json:"processed"`
	Pending   int           `json:"pending"`
	Failed    int           `json:"failed"`
	Skipped   bool          `json:"skipped"`
	Duration  time.Duration `json:"duration"`
}

// Poller sweeps the payment queue on a fixed interval. The next sweep is
// scheduled only after the current one returns.
type Poller struct {
	cfg        Config
	queue      repository.PaymentQueueRepository
	gateway    Gateway
	reconciler Reconciler
	scheduler  Scheduler
	lease      Lease

	mu         sync.Mutex
	running    bool
	generation uint64
	timer      Timer
	inflight   sync.WaitGroup

	// sweepMu keeps the loop and manual triggers from overlapping.
	sweepMu sync.Mutex
}

func NewPoller(cfg Config, queue repository.PaymentQueueRepository, gateway Gateway, reconciler Reconciler, opts ...Option) *Poller {
	p := &Poller{
		cfg:        cfg.withDefaults(),
		queue:      queue,
		gateway:    gateway,
		reconciler: reconciler,
		scheduler:  realScheduler{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start schedules the first sweep immediately. Calling Start twice is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true
	p.generation++
	gen := p.generation
	log.Infof("[PaymentQueue] Starting poller (interval=%s, maxRetries=%d)", p.cfg.Interval, p.cfg.MaxRetries)
	p.timer = p.scheduler.AfterFunc(0, func() { p.tick(gen) })
}

// Stop cancels the pending sweep and waits for a running one to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	log.Info("[PaymentQueue] Stopping poller...")
	p.running = false
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()

	p.inflight.Wait()
	log.Info("[PaymentQueue] Poller stopped")
}

func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) tick(gen uint64) {
	p.mu.Lock()
	if !p.running || gen != p.generation {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	p.inflight.Add(1)
	p.mu.Unlock()
	defer p.inflight.Done()

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.SweepTimeout)
	if _, err := p.SweepOnce(ctx); err != nil {
		log.Errorf("[PaymentQueue] Sweep failed: %v", err)
	}
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running && gen == p.generation {
		p.timer = p.scheduler.AfterFunc(p.cfg.Interval, func() { p.tick(gen) })
	}
}

// SweepOnce processes every due queue item in order, oldest first. A sweep
// never runs longer than the configured sweep timeout.
func (p *Poller) SweepOnce(ctx context.Context) (*SweepReport, error) {
	p.sweepMu.Lock()
	defer p.sweepMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.SweepTimeout)
	defer cancel()

	start := time.Now()
	report := &SweepReport{}
	defer func() {
		report.Duration = time.Since(start)
		metrics.ObserveSweep(report.Duration.Seconds())
	}()

	if p.lease != nil {
		ok, err := p.lease.Acquire(ctx)
		if err != nil {
			return report, err
		}
		if !ok {
			log.Debug("[PaymentQueue] Sweep lease held elsewhere, skipping")
			report.Skipped = true
			return report, nil
		}
		defer func() {
			if err := p.lease.Release(context.WithoutCancel(ctx)); err != nil {
				log.Warnf("[PaymentQueue] %v", err)
			}
		}()
	}

	items, err := p.queue.ListDue(ctx, p.cfg.MaxRetries)
	if err != nil {
		return report, fmt.Errorf("list due payments: %w", err)
	}
	report.Due = len(items)

	for i := range items {
		if err := ctx.Err(); err != nil {
			log.Warnf("[PaymentQueue] Sweep interrupted after %d of %d items: %v", i, len(items), err)
			return report, err
		}
		switch p.process(ctx, &items[i]) {
		case resultProcessed:
			report.Processed++
		case resultPending:
			report.Pending++
		default:
			report.Failed++
		}
	}

	if report.Due > 0 {
		log.Infof("[PaymentQueue] Sweep done: due=%d processed=%d pending=%d failed=%d", report.Due, report.Processed, report.Pending, report.Failed)
	}
	return report, nil
}

const (
	resultProcessed = "processed"
	resultPending   = "pending"
	resultFailed    = "failed"
)

func (p *Poller) process(ctx context.Context, item *models.PaymentQueueItem) string {
	status, err := p.gateway.GetInvoiceStatus(ctx, item.PaymentID)
	if err != nil {
		return p.fail(ctx, item, fmt.Errorf("gateway: %w", err))
	}

	if parsed, ok := models.ParsePaymentStatus(status); ok && !parsed.IsTerminal() {
		metrics.ObserveSweepItem(resultPending)
		return resultPending
	}

	_, err = p.reconciler.Reconcile(ctx, payment.Event{
		PaymentID: item.PaymentID,
		Status:    status,
		Source:    payment.SourcePoller,
		Note:      fmt.Sprintf("queue item %d, attempt %d", item.ID, item.RetryCount+1),
	})
	if err != nil {
		return p.fail(ctx, item, fmt.Errorf("reconcile: %w", err))
	}

	if err := p.queue.MarkProcessed(ctx, item.ID); err != nil {
		log.Errorf("[PaymentQueue] Failed to mark item %d (payment %s) processed: %v", item.ID, item.PaymentID, err)
	}
	metrics.ObserveSweepItem(resultProcessed)
	return resultProcessed
}

func (p *Poller) fail(ctx context.Context, item *models.PaymentQueueItem, cause error) string {
	metrics.ObserveSweepItem(resultFailed)
	attempt := item.RetryCount + 1
	if attempt > p.cfg.MaxRetries {
		log.Warnf("[PaymentQueue] Payment %s failed attempt %d, giving up after this: %v", item.PaymentID, attempt, cause)
	} else {
		log.Warnf("[PaymentQueue] Payment %s failed attempt %d: %v", item.PaymentID, attempt, cause)
	}
	if err := p.queue.RecordFailure(ctx, item.ID, cause.Error()); err != nil {
		log.Errorf("[PaymentQueue] Failed to record failure for item %d: %v", item.ID, err)
	}
	return resultFailed
}
