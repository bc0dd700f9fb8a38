package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"github.com/ManuelReschke/EventPay/app/controllers"
	"github.com/ManuelReschke/EventPay/internal/pkg/constants"
	"github.com/ManuelReschke/EventPay/internal/pkg/env"
	"github.com/ManuelReschke/EventPay/internal/pkg/middleware"
	"github.com/ManuelReschke/EventPay/internal/pkg/payment"
	"github.com/ManuelReschke/EventPay/internal/pkg/router"
)

const webhookBodyLimit = 1 << 20

func newServeCommand() *cobra.Command {
	var (
		addr         string
		noPoller     bool
		syncDispatch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook and admin HTTP server with the fallback poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
			}
			async := env.GetBool("DISPATCH_ASYNC", true) && !syncDispatch
			return serve(cmd.Context(), addr, async, !noPoller)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default APP_HOST:APP_PORT)")
	cmd.Flags().BoolVar(&noPoller, "no-poller", false, "do not start the fallback payment poller")
	cmd.Flags().BoolVar(&syncDispatch, "sync-dispatch", false, "run receipt and notification delivery inside the webhook request")
	return cmd
}

func serve(ctx context.Context, addr string, asyncDispatch, runPoller bool) error {
	svc, err := buildServices(ctx, asyncDispatch)
	if err != nil {
		return err
	}
	defer svc.Close()

	verifier := payment.NewVerifierFromEnv()
	if !verifier.Configured() {
		log.Warn("[EventPay] Webhook secret not configured, every callback will be rejected")
	}

	app := NewApplication(router.Dependencies{
		Webhook:     controllers.NewPaymentWebhookController(verifier, svc.reconciler),
		Admin:       controllers.NewAdminPaymentController(svc.invoices, svc.resender, svc.poller, svc.repos, svc.queueCfg.MaxRetries),
		AdminAuth:   middleware.LoadAdminCredentials(),
		HealthCheck: svc.healthCheck,
	})

	if runPoller && svc.queueCfg.Enabled {
		if !svc.gatewayOK {
			log.Warn("[EventPay] Fallback poller not started: Xendit client is not configured")
		} else {
			svc.poller.Start()
			defer svc.poller.Stop()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("[EventPay] Listening on %s", addr)
		errCh <- app.Listen(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Infof("[EventPay] Received %s, shutting down", sig)
	case <-ctx.Done():
	}

	if err := app.ShutdownWithTimeout(env.GetDuration("SHUTDOWN_TIMEOUT", 30*time.Second)); err != nil {
		log.Errorf("[EventPay] Shutdown: %v", err)
	}
	return nil
}

// NewApplication builds the Fiber app with middleware, docs and routes.
func NewApplication(deps router.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "EventPay",
		BodyLimit: webhookBodyLimit,
	})
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	if _, err := os.Stat(constants.OpenAPIFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: constants.DocsBasePath,
			FilePath: "./" + constants.OpenAPIFile,
			Path:     "v1",
		}))
	}

	// ROUTER
	router.InstallRouter(app, deps)

	return app
}
