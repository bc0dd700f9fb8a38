package router

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EventPay/app/controllers"
	"github.com/ManuelReschke/EventPay/internal/pkg/middleware"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the handlers and checks the routers mount.
type Dependencies struct {
	Webhook     *controllers.PaymentWebhookController
	Admin       *controllers.AdminPaymentController
	AdminAuth   middleware.AdminCredentials
	HealthCheck func(ctx context.Context) error
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
