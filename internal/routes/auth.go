package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mini-wallet/mini_wallet/internal/auth"
)

// RegisterAuthRoutes wires the public authentication endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/register", h.Register)
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/verify-otp", h.VerifyOTP)
	group.Post("/resend-otp", h.ResendOTP)
}
