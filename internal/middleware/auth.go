// Package middleware provides HTTP middleware for the fiber app.
package middleware

import (
	"strings"

	"kudipay/internal/services/auth"
	"kudipay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthMiddleware struct {
	authService auth.Service
}

func NewAuthMiddleware(authService auth.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Handler verifies the bearer token and attaches the claims to the
// request. Wallet routes derive the caller's user id from these claims
// only, never from the request body.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return utils.Unauthorized(c, "missing bearer token")
	}

	claims, err := m.authService.ParseToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return utils.Unauthorized(c, "invalid or expired token")
	}

	c.Locals("claims", claims)
	return c.Next()
}
