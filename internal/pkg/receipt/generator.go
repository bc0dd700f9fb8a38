// Package receipt renders and stores the payment receipt of a participant.
package receipt

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/skip2/go-qrcode"

	"github.com/ManuelReschke/EventPay/app/models"
	"github.com/ManuelReschke/EventPay/app/repository"
)

const (
	qrSize = 256

	contentTypeHTML = "text/html; charset=utf-8"
	contentTypePNG  = "image/png"
)

// ObjectStore persists rendered receipt objects.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}

type Generator struct {
	store    ObjectStore
	locator  Locator
	settings repository.SettingRepository
	now      func() time.Time
}

func NewGenerator(store ObjectStore, locator Locator, settings repository.SettingRepository) *Generator {
	return &Generator{store: store, locator: locator, settings: settings, now: time.Now}
}

type receiptView struct {
	EventTitle      string
	Name            string
	Email           string
	WhatsApp        string
	Categories      string
	Amount          string
	Status          string
	Paid            bool
	TransactionDate string
	PaymentID       string
	QRCode          template.URL
}

// Generate renders the receipt HTML and its QR code and stores both under
// the participant's deterministic keys. Running it twice overwrites the objects.
func (g *Generator) Generate(ctx context.Context, p *models.Participant) error {
	qr, err := qrcode.Encode(g.locator.ReregistrationURL(p.ID), qrcode.Medium, qrSize)
	if err != nil {
		return fmt.Errorf("encode qr code: %w", err)
	}

	html, err := g.render(ctx, p, qr)
	if err != nil {
		return err
	}

	if err := g.store.Put(ctx, g.locator.BarcodeKey(p.ID), contentTypePNG, qr); err != nil {
		return err
	}
	if err := g.store.Put(ctx, g.locator.ReceiptKey(p.ID), contentTypeHTML, html); err != nil {
		return err
	}

	log.Infof("[Receipt] Stored receipt for participant %s", p.ID)
	return nil
}

func (g *Generator) render(ctx context.Context, p *models.Participant, qr []byte) ([]byte, error) {
	title := models.DefaultEventTitle
	if g.settings != nil {
		if v, err := g.settings.GetValue(ctx, models.SettingEventTitle); err == nil && strings.TrimSpace(v) != "" {
			title = v
		}
	}

	view := receiptView{
		EventTitle:      title,
		Name:            p.Name,
		Email:           p.Email,
		WhatsApp:        p.WhatsApp,
		Categories:      strings.Join(p.Categories, ", "),
		Amount:          FormatRupiah(p.Price),
		Status:          p.PaymentStatus.String(),
		Paid:            p.PaymentStatus == models.PaymentStatusPaid,
		TransactionDate: transactionDate(p, g.now()),
		PaymentID:       p.PaymentRef(),
		QRCode:          template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(qr)),
	}

	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func transactionDate(p *models.Participant, now time.Time) string {
	t := p.UpdatedAt
	if t.IsZero() {
		t = now
	}
	return t.Format("02 Jan 2006 15:04 MST")
}

// FormatRupiah formats an IDR amount with dot thousands separators.
func FormatRupiah(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "Rp " + b.String()
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html lang="id">
<head>
<meta charset="utf-8">
<title>Kwitansi {{.EventTitle}}</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 2rem auto; color: #222; }
h1 { font-size: 1.4rem; }
table { width: 100%; border-collapse: collapse; }
td { padding: .4rem; border-bottom: 1px solid #ddd; }
td:first-child { font-weight: bold; width: 40%; }
.stamp { display: inline-block; border: 3px solid #1a7f37; color: #1a7f37; padding: .3rem 1rem; font-weight: bold; transform: rotate(-8deg); }
.qr { text-align: center; margin-top: 1.5rem; }
</style>
</head>
<body>
<h1>Kwitansi Pembayaran {{.EventTitle}}</h1>
<table>
<tr><td>Nama</td><td>{{.Name}}</td></tr>
<tr><td>Email</td><td>{{.Email}}</td></tr>
<tr><td>WhatsApp</td><td>{{.WhatsApp}}</td></tr>
<tr><td>Kategori</td><td>{{.Categories}}</td></tr>
<tr><td>Jumlah</td><td>{{.Amount}}</td></tr>
<tr><td>Status</td><td>{{.Status}}</td></tr>
<tr><td>Tanggal Transaksi</td><td>{{.TransactionDate}}</td></tr>
{{if .PaymentID}}<tr><td>ID Pembayaran</td><td>{{.PaymentID}}</td></tr>{{end}}
</table>
{{if .Paid}}<p><span class="stamp">LUNAS</span></p>{{end}}
<div class="qr">
<img src="{{.QRCode}}" alt="QR code daftar ulang" width="200" height="200">
<p>Tunjukkan QR code ini saat daftar ulang.</p>
</div>
</body>
</html>
`))
