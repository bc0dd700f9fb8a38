package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EventPay/internal/pkg/payment"
	"github.com/ManuelReschke/EventPay/internal/pkg/xendit"
)

// paymentErrorStatus maps payment pipeline errors to HTTP status codes and a
// short machine-readable code.
func paymentErrorStatus(err error) (int, string) {
	var validationErr *payment.ValidationError
	var storeErr *payment.StoreError
	var gatewayErr *xendit.APIError

	switch {
	case errors.Is(err, payment.ErrMissingSignature):
		return fiber.StatusUnauthorized, "missing_signature"
	case errors.Is(err, payment.ErrInvalidSignature):
		return fiber.StatusUnauthorized, "invalid_signature"
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest, "invalid_payload"
	case errors.Is(err, payment.ErrInvalidStatus):
		return fiber.StatusBadRequest, "invalid_status"
	case errors.Is(err, payment.ErrParticipantNotFound):
		return fiber.StatusNotFound, "participant_not_found"
	case errors.Is(err, payment.ErrPaymentAlreadyAssigned):
		return fiber.StatusConflict, "payment_already_assigned"
	case errors.Is(err, payment.ErrNotPaid):
		return fiber.StatusConflict, "participant_not_paid"
	case errors.Is(err, payment.ErrConcurrentUpdate):
		return fiber.StatusInternalServerError, "concurrent_update"
	case errors.As(err, &gatewayErr):
		return fiber.StatusBadGateway, "gateway_error"
	case errors.As(err, &storeErr):
		return fiber.StatusInternalServerError, "store_unavailable"
	default:
		return fiber.StatusInternalServerError, "internal_error"
	}
}

func paymentErrorResponse(c *fiber.Ctx, err error) error {
	status, code := paymentErrorStatus(err)
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   code,
		"details": err.Error(),
	})
}
