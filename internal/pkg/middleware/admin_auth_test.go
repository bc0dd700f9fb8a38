package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRequireAdmin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/admin", RequireAdmin(AdminCredentials{Username: "ops", PasswordHash: string(hash)}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	tests := []struct {
		name string
		auth string
		want int
	}{
		{name: "no credentials", auth: "", want: fiber.StatusUnauthorized},
		{name: "wrong password", auth: "ops:nope", want: fiber.StatusUnauthorized},
		{name: "wrong user", auth: "root:s3cret", want: fiber.StatusUnauthorized},
		{name: "valid", auth: "ops:s3cret", want: fiber.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(tt.auth)))
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAdminCredentials_EmptyHashRefusesAll(t *testing.T) {
	assert.False(t, AdminCredentials{Username: "admin"}.Check("admin", ""))
}
