package xendit

import (
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/EventPay/internal/pkg/env"
)

const DefaultBaseURL = "https://api.xendit.co"

// DefaultPaymentMethods mirrors the channels enabled for the event.
var DefaultPaymentMethods = []string{"CREDIT_CARD", "BCA", "BNI", "BRI", "MANDIRI", "OVO", "DANA", "LINKAJA", "GOPAY"}

// Config holds the Xendit API settings
type Config struct {
	APIKey             string
	BaseURL            string
	Timeout            time.Duration
	SuccessRedirectURL string
	FailureRedirectURL string
	InvoiceDuration    time.Duration
	PaymentMethods     []string
}

// LoadConfig reads the Xendit settings from the environment
func LoadConfig() Config {
	cfg := Config{
		APIKey:             strings.TrimSpace(env.GetEnv("XENDIT_API_KEY", "")),
		BaseURL:            strings.TrimRight(env.GetEnv("XENDIT_BASE_URL", DefaultBaseURL), "/"),
		Timeout:            env.GetDuration("XENDIT_TIMEOUT", 10*time.Second),
		SuccessRedirectURL: env.GetEnv("XENDIT_SUCCESS_REDIRECT_URL", ""),
		FailureRedirectURL: env.GetEnv("XENDIT_FAILURE_REDIRECT_URL", ""),
		InvoiceDuration:    env.GetDuration("XENDIT_INVOICE_DURATION", 24*time.Hour),
		PaymentMethods:     DefaultPaymentMethods,
	}
	if raw := env.GetEnv("XENDIT_PAYMENT_METHODS", ""); raw != "" {
		var methods []string
		for _, m := range strings.Split(raw, ",") {
			if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
				methods = append(methods, m)
			}
		}
		cfg.PaymentMethods = methods
	}
	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("XENDIT_API_KEY is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("XENDIT_BASE_URL is required")
	}
	return nil
}
