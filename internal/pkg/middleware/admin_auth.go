package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"golang.org/x/crypto/bcrypt"

	"github.com/ManuelReschke/EventPay/internal/pkg/env"
)

// AdminCredentials is a single operator account. PasswordHash is a bcrypt hash.
type AdminCredentials struct {
	Username     string
	PasswordHash string
}

func LoadAdminCredentials() AdminCredentials {
	return AdminCredentials{
		Username:     strings.TrimSpace(env.GetEnv("ADMIN_USER", "admin")),
		PasswordHash: strings.TrimSpace(env.GetEnv("ADMIN_PASSWORD_HASH", "")),
	}
}

// Check reports whether user and pass match the stored credentials.
func (a AdminCredentials) Check(user, pass string) bool {
	if a.PasswordHash == "" || a.Username == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.Username)) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(pass)) == nil
	return userOK && passOK
}

// RequireAdmin protects operator endpoints with HTTP basic auth. Without a
// configured hash every request is refused.
func RequireAdmin(creds AdminCredentials) fiber.Handler {
	if creds.PasswordHash == "" {
		log.Warn("[Admin] ADMIN_PASSWORD_HASH not set, admin endpoints are disabled")
	}
	return basicauth.New(basicauth.Config{
		Realm:      "EventPay Admin",
		Authorizer: creds.Check,
		Unauthorized: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="EventPay Admin"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "unauthorized"})
		},
	})
}
