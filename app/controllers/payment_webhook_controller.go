package controllers

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EventPay/internal/pkg/metrics"
	"github.com/ManuelReschke/EventPay/internal/pkg/payment"
)

const webhookTimeout = 15 * time.Second

type PaymentReconciler interface {
	Reconcile(ctx context.Context, ev payment.Event) (*payment.Result, error)
	Reject(ctx context.Context, ev payment.Event, cause error)
}

// xenditWebhookPayload accepts both the flat payment callback and Xendit's
// invoice callback, which names the invoice "id".
type xenditWebhookPayload struct {
	PaymentID  string `json:"payment_id" validate:"required,max=64"`
	Status     string `json:"status" validate:"required,max=32"`
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
}

type PaymentWebhookController struct {
	verifier   *payment.Verifier
	reconciler PaymentReconciler
	validate   *validator.Validate
}

func NewPaymentWebhookController(verifier *payment.Verifier, reconciler PaymentReconciler) *PaymentWebhookController {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &PaymentWebhookController{
		verifier:   verifier,
		reconciler: reconciler,
		validate:   v,
	}
}

// HandleXenditWebhook authenticates the callback before anything touches the store.
func (wc *PaymentWebhookController) HandleXenditWebhook(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		c.Set(fiber.HeaderAllow, fiber.MethodPost)
		return wc.respond(c, fiber.StatusMethodNotAllowed, fiber.Map{"success": false, "error": "method_not_allowed"})
	}

	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get(wc.verifier.Header))
	if signature == "" {
		log.Warnf("[Webhook] Rejected callback from %s: %v", clientIP(c), payment.ErrMissingSignature)
		return wc.fail(c, payment.ErrMissingSignature)
	}
	if !wc.verifier.Verify(rawBody, signature) {
		log.Warnf("[Webhook] Rejected callback from %s: %v", clientIP(c), payment.ErrInvalidSignature)
		return wc.fail(c, payment.ErrInvalidSignature)
	}

	var payload xenditWebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return wc.reject(c, payload, rawBody, &payment.ValidationError{Reason: "body is not valid JSON"})
	}
	if payload.PaymentID == "" {
		payload.PaymentID = payload.ID
	}
	payload.PaymentID = strings.TrimSpace(payload.PaymentID)
	payload.Status = strings.TrimSpace(payload.Status)
	if err := wc.validate.Struct(&payload); err != nil {
		return wc.reject(c, payload, rawBody, validationError(err))
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), webhookTimeout)
	defer cancel()

	result, err := wc.reconciler.Reconcile(ctx, payment.Event{
		PaymentID:  payload.PaymentID,
		Status:     payload.Status,
		Source:     payment.SourceWebhook,
		RawPayload: rawBody,
	})
	if err != nil {
		log.Errorf("[Webhook] Payment %s (%s): %v", payload.PaymentID, payload.Status, err)
		return wc.fail(c, err)
	}

	return wc.respond(c, fiber.StatusOK, fiber.Map{
		"success": true,
		"status":  result.Status,
		"changed": result.Changed,
	})
}

// reject records a signed but malformed callback before answering 400.
func (wc *PaymentWebhookController) reject(c *fiber.Ctx, payload xenditWebhookPayload, rawBody []byte, err error) error {
	log.Warnf("[Webhook] Malformed callback for payment %q: %v", payload.PaymentID, err)
	wc.reconciler.Reject(c.UserContext(), payment.Event{
		PaymentID:  payload.PaymentID,
		Status:     payload.Status,
		Source:     payment.SourceWebhook,
		RawPayload: rawBody,
	}, err)
	return wc.fail(c, err)
}

func (wc *PaymentWebhookController) fail(c *fiber.Ctx, err error) error {
	status, _ := paymentErrorStatus(err)
	metrics.ObserveWebhookResponse(status)
	return paymentErrorResponse(c, err)
}

func (wc *PaymentWebhookController) respond(c *fiber.Ctx, status int, body fiber.Map) error {
	metrics.ObserveWebhookResponse(status)
	return c.Status(status).JSON(body)
}

func validationError(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return &payment.ValidationError{Field: fe.Field(), Reason: "failed " + fe.Tag()}
	}
	return &payment.ValidationError{Reason: err.Error()}
}
