package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/nats-io/nats.go"
	"gorm.io/gorm"

	"github.com/ManuelReschke/EventPay/app/repository"
	"github.com/ManuelReschke/EventPay/internal/pkg/cache"
	"github.com/ManuelReschke/EventPay/internal/pkg/database"
	"github.com/ManuelReschke/EventPay/internal/pkg/env"
	"github.com/ManuelReschke/EventPay/internal/pkg/mail"
	"github.com/ManuelReschke/EventPay/internal/pkg/notify"
	"github.com/ManuelReschke/EventPay/internal/pkg/payment"
	"github.com/ManuelReschke/EventPay/internal/pkg/paymentqueue"
	"github.com/ManuelReschke/EventPay/internal/pkg/receipt"
	"github.com/ManuelReschke/EventPay/internal/pkg/s3store"
	"github.com/ManuelReschke/EventPay/internal/pkg/whatsapp"
	"github.com/ManuelReschke/EventPay/internal/pkg/xendit"
)

var errGatewayNotConfigured = errors.New("XENDIT_API_KEY is not configured")

// unconfiguredGateway keeps webhook-only deployments running without an API key.
type unconfiguredGateway struct{}

func (unconfiguredGateway) CreateInvoice(context.Context, xendit.InvoiceRequest) (*xendit.Invoice, error) {
	return nil, errGatewayNotConfigured
}

func (unconfiguredGateway) GetInvoiceStatus(context.Context, string) (string, error) {
	return "", errGatewayNotConfigured
}

type gateway interface {
	payment.InvoiceGateway
	paymentqueue.Gateway
}

type services struct {
	db         *gorm.DB
	repos      *repository.Repositories
	dispatcher *payment.Dispatcher
	reconciler *payment.Reconciler
	invoices   *payment.InvoiceService
	resender   *payment.Resender
	poller     *paymentqueue.Poller
	queueCfg   paymentqueue.Config
	gatewayOK  bool
	natsConn   *nats.Conn
	useRedis   bool
}

// buildServices wires the payment pipeline from the environment.
func buildServices(ctx context.Context, asyncDispatch bool) (*services, error) {
	s := &services{db: database.SetupDatabase()}
	s.repos = repository.NewRepositories(s.db)

	locator := receipt.NewLocator(env.GetEnv("RECEIPT_BASE_URL", ""))

	store, err := receiptStore(ctx)
	if err != nil {
		return nil, err
	}

	operator := s.operatorNotifier()

	opts := []payment.DispatcherOption{
		payment.WithReceiptGenerator(receipt.NewGenerator(store, locator, s.repos.Setting)),
		payment.WithOperatorNotifier(operator),
	}
	if waCfg := whatsapp.LoadConfig(); waCfg.Enabled() {
		opts = append(opts, payment.WithMessageSender(whatsapp.NewClient(waCfg)))
	} else {
		log.Warn("[EventPay] WHATSAPP_API_KEY not set, receipts will not be sent by WhatsApp")
	}
	if asyncDispatch {
		opts = append(opts, payment.WithAsync(env.GetDuration("DISPATCH_TIMEOUT", payment.DefaultDispatchTimeout)))
	}
	s.dispatcher = payment.NewDispatcher(s.repos.Participant, s.repos.Setting, locator, opts...)

	auditor := payment.NewAuditor(s.repos.PaymentHistory)
	s.reconciler = payment.NewReconciler(s.repos.Participant, s.repos.PaymentQueue, auditor, s.dispatcher, locator)
	s.resender = payment.NewResender(s.repos.Participant, s.dispatcher)

	var gw gateway = unconfiguredGateway{}
	if client, err := xendit.NewClient(xendit.LoadConfig()); err != nil {
		log.Warnf("[EventPay] Xendit client disabled: %v", err)
	} else {
		gw = client
		s.gatewayOK = true
	}
	s.invoices = payment.NewInvoiceService(s.repos, auditor, gw, operator)

	s.queueCfg = paymentqueue.LoadConfig()
	var pollerOpts []paymentqueue.Option
	if cache.Enabled() {
		s.useRedis = true
		pollerOpts = append(pollerOpts, paymentqueue.WithLease(
			paymentqueue.NewRedisLease(cache.GetClient(), env.GetEnv("PAYMENT_QUEUE_LEASE_KEY", ""), s.queueCfg.LeaseTTL),
		))
	}
	s.poller = paymentqueue.NewPoller(s.queueCfg, s.repos.PaymentQueue, gw, s.reconciler, pollerOpts...)

	return s, nil
}

func receiptStore(ctx context.Context) (receipt.ObjectStore, error) {
	cfg, err := s3store.LoadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.IsEnabled() {
		dir := env.GetEnv("RECEIPT_LOCAL_DIR", "./receipts")
		log.Infof("[EventPay] S3 disabled, storing receipts in %s", dir)
		return receipt.NewLocalStore(dir), nil
	}
	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	client, err := s3store.NewClient(initCtx, cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *services) operatorNotifier() notify.Notifier {
	cfg := notify.LoadConfig()
	channels := notify.Multi{notify.LogNotifier{}}

	if cfg.NATSURL != "" {
		conn, err := notify.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Warnf("[EventPay] Operator alerts via NATS disabled: %v", err)
		} else {
			s.natsConn = conn
			channels = append(channels, notify.NewNATSNotifier(conn, cfg.Subject))
		}
	}

	if mailCfg := mail.LoadConfig(); cfg.OperatorEmail != "" && mailCfg.Enabled() {
		channels = append(channels, notify.NewMailNotifier(mail.NewSMTPMailer(mailCfg), cfg.OperatorEmail))
	}
	return channels
}

func (s *services) healthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if s.useRedis {
		if err := cache.Ping(ctx); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	return nil
}

// Close drains detached side effects and releases connections.
func (s *services) Close() {
	s.dispatcher.Wait()
	if s.natsConn != nil {
		if err := s.natsConn.Drain(); err != nil {
			log.Warnf("[EventPay] NATS drain: %v", err)
		}
	}
	if s.useRedis {
		if err := cache.Close(); err != nil {
			log.Warnf("[EventPay] Redis close: %v", err)
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
