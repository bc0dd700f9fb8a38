package payment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/datatypes"

	"github.com/ManuelReschke/EventPay/app/models"
	"github.com/ManuelReschke/EventPay/app/repository"
	"github.com/ManuelReschke/EventPay/internal/pkg/metrics"
)

// Source names the path an event arrived through.
type Source string

const (
	SourceWebhook Source = "webhook"
	SourcePoller  Source = "poller"
	SourceInvoice Source = "invoice"
	SourceAdmin   Source = "admin"
)

const maxAuditStatusLen = 32

// Auditor appends payment history rows. Append never fails the caller.
type Auditor struct {
	repo repository.PaymentHistoryRepository
	now  func() time.Time
}

func NewAuditor(repo repository.PaymentHistoryRepository) *Auditor {
	return &Auditor{repo: repo, now: time.Now}
}

// Append records one observed event. rawPayload may be nil.
func (a *Auditor) Append(ctx context.Context, paymentID, status, note string, rawPayload []byte) {
	if a == nil || a.repo == nil {
		return
	}
	if len(status) > maxAuditStatusLen {
		status = status[:maxAuditStatusLen]
	}
	entry := &models.PaymentHistory{
		PaymentID:  paymentID,
		Status:     status,
		Notes:      note,
		RawPayload: toJSON(rawPayload),
		Timestamp:  a.now().UTC(),
	}
	if err := a.repo.Append(ctx, entry); err != nil {
		metrics.ObserveAuditFailure()
		log.Errorf("[Audit] Failed to append history for payment %s (status=%s): %v", paymentID, status, err)
	}
}

func toJSON(raw []byte) datatypes.JSON {
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return datatypes.JSON(raw)
	}
	quoted, err := json.Marshal(string(raw))
	if err != nil {
		return nil
	}
	return datatypes.JSON(quoted)
}
