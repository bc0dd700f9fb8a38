package receipt

import (
	"net/url"
	"strings"
)

// Locator derives the content-addressed object keys and public URLs of a
// participant's receipt documents. The same id always yields the same paths.
type Locator struct {
	BaseURL string
}

func NewLocator(baseURL string) Locator {
	return Locator{BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

func (l Locator) ReceiptKey(participantID string) string {
	return "receipts/" + url.PathEscape(participantID) + ".html"
}

func (l Locator) BarcodeKey(participantID string) string {
	return "barcodes/" + url.PathEscape(participantID) + ".png"
}

func (l Locator) ReceiptURL(participantID string) string {
	return l.join(l.ReceiptKey(participantID))
}

func (l Locator) BarcodeURL(participantID string) string {
	return l.join(l.BarcodeKey(participantID))
}

// ReregistrationURL is the link encoded in the receipt's QR code and scanned
// at the re-registration desk.
func (l Locator) ReregistrationURL(participantID string) string {
	return l.join("reregistration?participant=" + url.QueryEscape(participantID))
}

func (l Locator) join(path string) string {
	if l.BaseURL == "" {
		return "/" + path
	}
	return l.BaseURL + "/" + path
}
