package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EventPay/app/models"
	"github.com/ManuelReschke/EventPay/app/repository"
	"github.com/ManuelReschke/EventPay/internal/pkg/payment"
	"github.com/ManuelReschke/EventPay/internal/pkg/paymentqueue"
)

const (
	adminRequestTimeout = 60 * time.Second
	defaultPageSize     = 50
	maxPageSize         = 500
)

type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, participantID string) (*payment.InvoiceResult, error)
}

type ReceiptResender interface {
	Resend(ctx context.Context, participantID string) ([]payment.TaskOutcome, error)
	ListUndelivered(ctx context.Context, limit int) ([]models.Participant, error)
}

type QueueSweeper interface {
	SweepOnce(ctx context.Context) (*paymentqueue.SweepReport, error)
}

// AdminPaymentController serves the operator remediation endpoints.
type AdminPaymentController struct {
	invoices InvoiceCreator
	resender ReceiptResender
	sweeper  QueueSweeper
	queue    repository.PaymentQueueRepository
	history  repository.PaymentHistoryRepository
	maxRetry int
}

func NewAdminPaymentController(invoices InvoiceCreator, resender ReceiptResender, sweeper QueueSweeper, repos *repository.Repositories, maxRetries int) *AdminPaymentController {
	return &AdminPaymentController{
		invoices: invoices,
		resender: resender,
		sweeper:  sweeper,
		queue:    repos.PaymentQueue,
		history:  repos.PaymentHistory,
		maxRetry: maxRetries,
	}
}

type taskOutcomeResponse struct {
	Task       string `json:"task"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type queueItemResponse struct {
	models.PaymentQueueItem
	Abandoned bool `json:"abandoned"`
}

func (ac *AdminPaymentController) HandleCreateInvoice(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), adminRequestTimeout)
	defer cancel()

	result, err := ac.invoices.CreateInvoice(ctx, strings.TrimSpace(c.Params("id")))
	if err != nil {
		log.Warnf("[Admin] Create invoice for %s failed: %v", c.Params("id"), err)
		return paymentErrorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "invoice": result})
}

func (ac *AdminPaymentController) HandleResendReceipt(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), adminRequestTimeout)
	defer cancel()

	outcomes, err := ac.resender.Resend(ctx, strings.TrimSpace(c.Params("id")))
	if err != nil {
		return paymentErrorResponse(c, err)
	}

	resp := make([]taskOutcomeResponse, 0, len(outcomes))
	allOK := true
	for _, o := range outcomes {
		r := taskOutcomeResponse{Task: o.Name, OK: o.Err == nil, DurationMS: o.Duration.Milliseconds()}
		if o.Err != nil {
			r.Error = o.Err.Error()
			allOK = false
		}
		resp = append(resp, r)
	}
	return c.JSON(fiber.Map{"success": allOK, "tasks": resp})
}

func (ac *AdminPaymentController) HandleListUndelivered(c *fiber.Ctx) error {
	limit := clampPageSize(c.QueryInt("limit", defaultPageSize))
	participants, err := ac.resender.ListUndelivered(c.UserContext(), limit)
	if err != nil {
		return paymentErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "participants": participants})
}

func (ac *AdminPaymentController) HandleListQueue(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit := clampPageSize(c.QueryInt("limit", defaultPageSize))

	items, err := ac.queue.List(c.UserContext(), offset, limit)
	if err != nil {
		return paymentErrorResponse(c, &payment.StoreError{Op: "list payment queue", Err: err})
	}
	resp := make([]queueItemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, queueItemResponse{PaymentQueueItem: it, Abandoned: it.IsAbandoned(ac.maxRetry)})
	}
	return c.JSON(fiber.Map{"success": true, "items": resp, "offset": offset, "limit": limit})
}

func (ac *AdminPaymentController) HandleTriggerSweep(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), paymentqueue.DefaultSweepTimeout)
	defer cancel()

	report, err := ac.sweeper.SweepOnce(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "sweep_failed",
			"details": err.Error(),
			"report":  report,
		})
	}
	return c.JSON(fiber.Map{"success": true, "report": report})
}

func (ac *AdminPaymentController) HandlePaymentHistory(c *fiber.Ctx) error {
	paymentID := strings.TrimSpace(c.Params("payment_id"))
	entries, err := ac.history.ListByPaymentID(c.UserContext(), paymentID)
	if err != nil {
		return paymentErrorResponse(c, &payment.StoreError{Op: "list payment history", Err: err})
	}
	return c.JSON(fiber.Map{"success": true, "payment_id": paymentID, "history": entries})
}

func clampPageSize(n int) int {
	if n <= 0 {
		return defaultPageSize
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}
