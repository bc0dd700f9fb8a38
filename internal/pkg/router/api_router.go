package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/EventPay/internal/pkg/constants"
	"github.com/ManuelReschke/EventPay/internal/pkg/middleware"
)

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	if h.deps.Admin == nil {
		return
	}

	admin := api.Group(constants.AdminAPIRoute, middleware.RequireAdmin(h.deps.AdminAuth))
	admin.Post("/participants/:id/invoice", h.deps.Admin.HandleCreateInvoice)
	admin.Post("/participants/:id/resend-receipt", h.deps.Admin.HandleResendReceipt)
	admin.Get("/participants/undelivered", h.deps.Admin.HandleListUndelivered)
	admin.Get("/payment-queue", h.deps.Admin.HandleListQueue)
	admin.Post("/payment-queue/sweep", h.deps.Admin.HandleTriggerSweep)
	admin.Get("/payments/:payment_id/history", h.deps.Admin.HandlePaymentHistory)
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
