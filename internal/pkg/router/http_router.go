package router

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuelReschke/EventPay/internal/pkg/constants"
	"github.com/ManuelReschke/EventPay/internal/pkg/middleware"
)

// HttpRouter mounts the gateway callback and the operational endpoints.
type HttpRouter struct {
	deps Dependencies
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	if h.deps.Webhook != nil {
		// All methods reach the handler so it can answer 405 itself.
		app.All(constants.WebhookXenditRoute, h.deps.Webhook.HandleXenditWebhook)
	}

	app.Get(constants.HealthRoute, h.handleHealth)
	app.Get(constants.MetricsRoute, middleware.RequireAdmin(h.deps.AdminAuth), adaptor.HTTPHandler(promhttp.Handler()))
}

func (h HttpRouter) handleHealth(c *fiber.Ctx) error {
	if h.deps.HealthCheck == nil {
		return c.JSON(fiber.Map{"status": "ok"})
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := h.deps.HealthCheck(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
