package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// clientIP determines the caller address behind Cloudflare or a reverse proxy.
func clientIP(c *fiber.Ctx) string {
	// 1. Cloudflare provides the original client IP
	if cfIP := strings.TrimSpace(c.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}

	// 2. X-Forwarded-For can contain a list of IPs, the first one is the client
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}

	// 3. No proxy headers, use the connection address
	ip := c.IP()
	if strings.HasPrefix(ip, "::ffff:") && strings.Contains(ip, ".") {
		// IPv4 mapped into IPv6
		return strings.TrimPrefix(ip, "::ffff:")
	}
	return ip
}
