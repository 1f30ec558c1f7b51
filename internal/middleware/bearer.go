package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mini-wallet/mini_wallet/internal/auth"
	"github.com/mini-wallet/mini_wallet/internal/config"
	"github.com/mini-wallet/mini_wallet/internal/identity"
)

// BearerAuth validates the session token and resolves the account. Any
// failure is a 401, which clients treat as session expiry.
func BearerAuth(cfg config.Config, repo identity.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		sub, err := auth.Subject(tokenStr, []byte(cfg.TokenSecret))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		user, err := repo.FindByID(c.UserContext(), sub)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "token invalidated")
		}

		c.Locals("user_id", user.ID)
		return c.Next()
	}
}
