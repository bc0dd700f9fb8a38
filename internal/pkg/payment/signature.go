package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/ManuelReschke/EventPay/internal/pkg/env"
)

const (
	// VerifyModeHMAC expects a hex HMAC-SHA256 of the raw body.
	VerifyModeHMAC = "hmac"
	// VerifyModeToken expects the static Xendit callback token.
	VerifyModeToken = "token"

	DefaultSignatureHeader     = "x-xendit-signature"
	DefaultCallbackTokenHeader = "x-callback-token"
)

// VerifyHMACSHA256 checks signatureHeader against the HMAC-SHA256 of payload
// keyed by secret. payload must be the exact request body bytes.
func VerifyHMACSHA256(payload []byte, signatureHeader, secret string) bool {
	sig := strings.TrimSpace(signatureHeader)
	if sig == "" || secret == "" {
		return false
	}

	decodedSig, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), decodedSig)
}

// SignHMACSHA256 returns the lowercase hex signature for payload.
func SignHMACSHA256(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCallbackToken compares a static callback token in constant time.
func VerifyCallbackToken(headerToken, token string) bool {
	got := strings.TrimSpace(headerToken)
	if got == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}

// Verifier authenticates inbound gateway callbacks. The scheme is configurable
// because Xendit can be set up with either a per-request HMAC or a static token.
type Verifier struct {
	Mode   string
	Header string
	Secret string
}

func NewVerifier(mode, header, secret string) *Verifier {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode != VerifyModeToken {
		mode = VerifyModeHMAC
	}
	header = strings.TrimSpace(header)
	if header == "" {
		header = DefaultSignatureHeader
		if mode == VerifyModeToken {
			header = DefaultCallbackTokenHeader
		}
	}
	return &Verifier{Mode: mode, Header: header, Secret: strings.TrimSpace(secret)}
}

// NewVerifierFromEnv reads WEBHOOK_VERIFY_MODE, WEBHOOK_SIGNATURE_HEADER and XENDIT_WEBHOOK_TOKEN.
func NewVerifierFromEnv() *Verifier {
	return NewVerifier(
		env.GetEnv("WEBHOOK_VERIFY_MODE", VerifyModeHMAC),
		env.GetEnv("WEBHOOK_SIGNATURE_HEADER", ""),
		env.GetEnv("XENDIT_WEBHOOK_TOKEN", ""),
	)
}

// Configured reports whether a secret is available.
func (v *Verifier) Configured() bool {
	return v != nil && v.Secret != ""
}

// Verify never panics and returns false for any missing input.
func (v *Verifier) Verify(payload []byte, headerValue string) bool {
	if !v.Configured() {
		return false
	}
	if v.Mode == VerifyModeToken {
		return VerifyCallbackToken(headerValue, v.Secret)
	}
	return VerifyHMACSHA256(payload, headerValue, v.Secret)
}
