package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/EventPay/app/models"
	"github.com/ManuelReschke/EventPay/app/repository"
	"github.com/ManuelReschke/EventPay/internal/pkg/xendit"
)

type InvoiceGateway interface {
	CreateInvoice(ctx context.Context, req xendit.InvoiceRequest) (*xendit.Invoice, error)
}

type InvoiceResult struct {
	ParticipantID string `json:"participant_id"`
	PaymentID     string `json:"payment_id"`
	InvoiceURL    string `json:"invoice_url"`
	Amount        int64  `json:"amount"`
}

// InvoiceService creates the gateway invoice for a registration and
// enqueues it for fallback polling.
type InvoiceService struct {
	participants repository.ParticipantRepository
	queue        repository.PaymentQueueRepository
	settings     repository.SettingRepository
	auditor      *Auditor
	gateway      InvoiceGateway
	operator     OperatorNotifier
}

func NewInvoiceService(repos *repository.Repositories, auditor *Auditor, gateway InvoiceGateway, operator OperatorNotifier) *InvoiceService {
	return &InvoiceService{
		participants: repos.Participant,
		queue:        repos.PaymentQueue,
		settings:     repos.Setting,
		auditor:      auditor,
		gateway:      gateway,
		operator:     operator,
	}
}

func (s *InvoiceService) CreateInvoice(ctx context.Context, participantID string) (*InvoiceResult, error) {
	participant, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("participant %s: %w", participantID, ErrParticipantNotFound)
		}
		return nil, &StoreError{Op: "load participant", Err: err}
	}
	if participant.HasPaymentID() {
		return nil, fmt.Errorf("participant %s: %w", participantID, ErrPaymentAlreadyAssigned)
	}
	if participant.Price <= 0 {
		return nil, &ValidationError{Field: "price", Reason: "must be positive"}
	}

	req := xendit.InvoiceRequest{
		ExternalID:  participant.ID,
		Amount:      participant.Price,
		Description: s.description(ctx, participant),
		PayerEmail:  participant.Email,
		Customer: &xendit.Customer{
			GivenNames:   participant.Name,
			Email:        participant.Email,
			MobileNumber: participant.WhatsApp,
		},
	}

	invoice, err := s.gateway.CreateInvoice(ctx, req)
	if err != nil {
		s.auditor.Append(ctx, participant.ID, models.HistoryStatusFailed, fmt.Sprintf("[%s] error: payment creation failed: %v", SourceInvoice, err), nil)
		return nil, fmt.Errorf("create invoice for participant %s: %w", participant.ID, err)
	}

	assigned, err := s.participants.AssignPaymentID(ctx, participant.ID, invoice.ID)
	if err != nil {
		s.auditor.Append(ctx, participant.ID, models.HistoryStatusFailed, fmt.Sprintf("[%s] error: invoice %s not stored: %v", SourceInvoice, invoice.ID, err), nil)
		return nil, &StoreError{Op: "assign payment id", Err: err}
	}
	if !assigned {
		s.auditor.Append(ctx, participant.ID, models.HistoryStatusFailed, fmt.Sprintf("[%s] error: invoice %s discarded, payment id already set", SourceInvoice, invoice.ID), nil)
		return nil, fmt.Errorf("participant %s: %w", participant.ID, ErrPaymentAlreadyAssigned)
	}

	s.auditor.Append(ctx, invoice.ID, models.HistoryStatusCreated, fmt.Sprintf("[%s] payment invoice created", SourceInvoice), nil)

	if s.queue != nil {
		item := &models.PaymentQueueItem{
			PaymentID:     invoice.ID,
			ParticipantID: participant.ID,
			Status:        models.PaymentQueueStatusPending,
		}
		if err := s.queue.Enqueue(ctx, item); err != nil {
			log.Errorf("[Invoice] Failed to enqueue payment %s for polling: %v", invoice.ID, err)
		}
	}

	if s.operator != nil {
		RunBestEffort(ctx, Task{Name: TaskOperator, Run: func(ctx context.Context) error {
			return s.operator.NotifyOperator(ctx, AlertPaymentCreated, map[string]any{
				"payment_id":     invoice.ID,
				"participant_id": participant.ID,
				"amount":         participant.Price,
				"customer_name":  participant.Name,
			})
		}})
	}

	log.Infof("[Invoice] Created invoice %s for participant %s (amount=%d)", invoice.ID, participant.ID, participant.Price)
	return &InvoiceResult{
		ParticipantID: participant.ID,
		PaymentID:     invoice.ID,
		InvoiceURL:    invoice.InvoiceURL,
		Amount:        participant.Price,
	}, nil
}

func (s *InvoiceService) description(ctx context.Context, p *models.Participant) string {
	title := ""
	if s.settings != nil {
		if v, err := s.settings.GetValue(ctx, models.SettingEventTitle); err == nil {
			title = strings.TrimSpace(v)
		}
	}
	if title == "" {
		title = models.DefaultEventTitle
	}
	if len(p.Categories) == 0 {
		return "Registration " + title
	}
	return fmt.Sprintf("Registration %s: %s", title, strings.Join(p.Categories, ", "))
}
