// Package xendit is a small client for the Xendit invoice API.
package xendit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
)

var ErrInvoiceNotFound = errors.New("xendit invoice not found")

// APIError is a non-2xx response from Xendit.
type APIError struct {
	StatusCode int
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("xendit: %d %s: %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("xendit: %d %s", e.StatusCode, e.Message)
}

type Customer struct {
	GivenNames   string `json:"given_names,omitempty"`
	Email        string `json:"email,omitempty"`
	MobileNumber string `json:"mobile_number,omitempty"`
}

type InvoiceRequest struct {
	ExternalID         string    `json:"external_id"`
	Amount             int64     `json:"amount"`
	Description        string    `json:"description,omitempty"`
	PayerEmail         string    `json:"payer_email,omitempty"`
	Customer           *Customer `json:"customer,omitempty"`
	SuccessRedirectURL string    `json:"success_redirect_url,omitempty"`
	FailureRedirectURL string    `json:"failure_redirect_url,omitempty"`
	Currency           string    `json:"currency"`
	InvoiceDuration    int64     `json:"invoice_duration,omitempty"`
	PaymentMethods     []string  `json:"payment_methods,omitempty"`
}

type Invoice struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	InvoiceURL string `json:"invoice_url"`
	ExpiryDate string `json:"expiry_date"`
	Currency   string `json:"currency"`
}

type Client struct {
	http *resty.Client
	cfg  Config
}

func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetBasicAuth(cfg.APIKey, "").
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	return &Client{http: c, cfg: cfg}, nil
}

// Config returns the settings the client was built with.
func (c *Client) Config() Config {
	return c.cfg
}

// CreateInvoice creates a hosted invoice. Currency defaults to IDR.
func (c *Client) CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error) {
	if req.Currency == "" {
		req.Currency = "IDR"
	}
	if len(req.PaymentMethods) == 0 {
		req.PaymentMethods = c.cfg.PaymentMethods
	}
	if req.SuccessRedirectURL == "" {
		req.SuccessRedirectURL = c.cfg.SuccessRedirectURL
	}
	if req.FailureRedirectURL == "" {
		req.FailureRedirectURL = c.cfg.FailureRedirectURL
	}
	if req.InvoiceDuration == 0 && c.cfg.InvoiceDuration > 0 {
		req.InvoiceDuration = int64(c.cfg.InvoiceDuration.Seconds())
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&Invoice{}).
		SetError(&APIError{}).
		Post("/v2/invoices")
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}

	inv := resp.Result().(*Invoice)
	if inv.ID == "" {
		return nil, fmt.Errorf("create invoice: empty invoice id in response")
	}
	return inv, nil
}

func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return nil, fmt.Errorf("get invoice: empty invoice id")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&Invoice{}).
		SetError(&APIError{}).
		Get("/v2/invoices/" + url.PathEscape(invoiceID))
	if err != nil {
		return nil, fmt.Errorf("get invoice %s: %w", invoiceID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("get invoice %s: %w", invoiceID, ErrInvoiceNotFound)
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	return resp.Result().(*Invoice), nil
}

// GetInvoiceStatus returns the gateway's raw status string for an invoice.
func (c *Client) GetInvoiceStatus(ctx context.Context, invoiceID string) (string, error) {
	inv, err := c.GetInvoice(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	return inv.Status, nil
}

func apiError(resp *resty.Response) error {
	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	apiErr.StatusCode = resp.StatusCode()
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(resp.Body()))
	}
	return apiErr
}
