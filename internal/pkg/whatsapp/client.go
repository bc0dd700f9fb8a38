// Package whatsapp delivers text messages through the WhatsApp gateway API.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ManuelReschke/EventPay/internal/pkg/env"
)

const DefaultAPIURL = "https://api.whatsapp.com/send"

var ErrInvalidNumber = errors.New("invalid whatsapp number")

type Config struct {
	APIURL  string
	APIKey  string
	Timeout time.Duration
}

func LoadConfig() Config {
	return Config{
		APIURL:  env.GetEnv("WHATSAPP_API_URL", DefaultAPIURL),
		APIKey:  strings.TrimSpace(env.GetEnv("WHATSAPP_API_KEY", "")),
		Timeout: env.GetDuration("WHATSAPP_TIMEOUT", 10*time.Second),
	}
}

// Enabled reports whether an API key is configured.
func (c Config) Enabled() bool {
	return c.APIKey != ""
}

type sendRequest struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

type Client struct {
	http   *resty.Client
	apiURL string
}

func NewClient(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	c := resty.New().
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	return &Client{http: c, apiURL: cfg.APIURL}
}

// SendText sends text to the normalised form of number.
func (c *Client) SendText(ctx context.Context, number, text string) error {
	phone, err := NormalizeNumber(number)
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(sendRequest{Phone: phone, Text: text}).
		Post(c.apiURL)
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("send whatsapp message: status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}

// NormalizeNumber converts a local Indonesian number to international form
// without the leading plus: "+62 812-34" and "081234" both become "6281234".
func NormalizeNumber(number string) (string, error) {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		digits = "62" + digits[1:]
	}
	if len(digits) < 8 {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, number)
	}
	return digits, nil
}
